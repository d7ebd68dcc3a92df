package onboarding

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/trampoja/app-onboarding/internal/models"
)

var stepPattern = regexp.MustCompile(`step-(\d+)`)

var stepLabels = map[Role][]string{
	RoleWorker: {"Dados Pessoais", "Endereco", "Foto e Documento", "Habilidades", "Disponibilidade"},
	RoleMarket: {"Dados da Empresa", "Endereco", "Fotos", "Contato"},
}

// StepState is one entry of the stepper shown to the user
type StepState struct {
	Number    int    `json:"number"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
	Clickable bool   `json:"clickable"`
}

// Sequencer gates navigation between the steps of a flow
type Sequencer struct {
	role   Role
	labels []string
}

// NewSequencer returns the sequencer of role
func NewSequencer(role Role) (*Sequencer, error) {
	labels, ok := stepLabels[role]
	if !ok {
		return nil, fmt.Errorf("new sequencer: %w", models.ErrInvalidRole)
	}
	return &Sequencer{role: role, labels: labels}, nil
}

// Total is the number of steps N
func (s *Sequencer) Total() int {
	return len(s.labels)
}

// InRange reports whether step is in [1, N]
func (s *Sequencer) InRange(step int) bool {
	return step >= 1 && step <= s.Total()
}

// StepFromPath extracts the step of a location such as
// /onboarding/worker/step-3. Anything unparseable or out of range is step 1.
func (s *Sequencer) StepFromPath(path string) int {
	match := stepPattern.FindStringSubmatch(path)
	if match == nil {
		return 1
	}
	step, err := strconv.Atoi(match[1])
	if err != nil || !s.InRange(step) {
		return 1
	}
	return step
}

// Advance moves forward from current once the step was validated.
// The last step stays put; leaving the flow is the final submission.
func (s *Sequencer) Advance(current int, validated bool) (int, error) {
	if !s.InRange(current) {
		return current, models.ErrStepOutOfRange
	}
	if !validated {
		return current, models.ErrStepNotValidated
	}
	if current == s.Total() {
		return current, nil
	}
	return current + 1, nil
}

// Back moves to the previous step; it is always allowed
func (s *Sequencer) Back(current int) int {
	switch {
	case current <= 1:
		return 1
	case current > s.Total():
		return s.Total()
	}
	return current - 1
}

// CanJump reports whether the stepper may go straight to target.
// Only steps before the current one are reachable this way.
func (s *Sequencer) CanJump(current, target int) bool {
	return target >= 1 && target < current && target <= s.Total()
}

// Steps renders the stepper for current
func (s *Sequencer) Steps(current int) []StepState {
	steps := make([]StepState, len(s.labels))
	for i, label := range s.labels {
		n := i + 1
		steps[i] = StepState{
			Number:    n,
			Label:     label,
			Completed: n < current,
			Current:   n == current,
			Clickable: s.CanJump(current, n),
		}
	}
	return steps
}
