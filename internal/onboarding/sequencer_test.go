package onboarding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trampoja/app-onboarding/internal/models"
)

func newSequencer(t *testing.T, role Role) *Sequencer {
	t.Helper()
	s, err := NewSequencer(role)
	require.NoError(t, err)
	return s
}

func TestNewSequencer(t *testing.T) {
	assert.Equal(t, 5, newSequencer(t, RoleWorker).Total())
	assert.Equal(t, 4, newSequencer(t, RoleMarket).Total())

	_, err := NewSequencer(Role(""))
	assert.True(t, errors.Is(err, models.ErrInvalidRole))
}

func TestSequencer_StepFromPath(t *testing.T) {
	worker := newSequencer(t, RoleWorker)
	market := newSequencer(t, RoleMarket)

	tests := []struct {
		name string
		seq  *Sequencer
		path string
		want int
	}{
		{name: "worker step 3", seq: worker, path: "/onboarding/worker/step-3", want: 3},
		{name: "worker last step", seq: worker, path: "/onboarding/worker/step-5", want: 5},
		{name: "out of range falls back to 1", seq: worker, path: "/onboarding/worker/step-7", want: 1},
		{name: "zero", seq: worker, path: "/onboarding/worker/step-0", want: 1},
		{name: "no step", seq: worker, path: "/onboarding/worker", want: 1},
		{name: "not a number", seq: worker, path: "/onboarding/worker/step-abc", want: 1},
		{name: "overflow", seq: worker, path: "step-99999999999999999999999", want: 1},
		{name: "first match wins", seq: worker, path: "/step-2/step-4", want: 2},
		{name: "trailing query", seq: worker, path: "/onboarding/worker/step-4?from=back", want: 4},
		{name: "market step 4", seq: market, path: "/onboarding/market/step-4", want: 4},
		{name: "market step 5 is out of range", seq: market, path: "/onboarding/market/step-5", want: 1},
		{name: "empty", seq: market, path: "", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seq.StepFromPath(tt.path))
		})
	}
}

func TestSequencer_Advance(t *testing.T) {
	s := newSequencer(t, RoleWorker)

	next, err := s.Advance(1, true)
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	next, err = s.Advance(2, false)
	assert.True(t, errors.Is(err, models.ErrStepNotValidated))
	assert.Equal(t, 2, next)

	next, err = s.Advance(5, true)
	require.NoError(t, err)
	assert.Equal(t, 5, next)

	_, err = s.Advance(6, true)
	assert.True(t, errors.Is(err, models.ErrStepOutOfRange))
	_, err = s.Advance(0, true)
	assert.True(t, errors.Is(err, models.ErrStepOutOfRange))
}

func TestSequencer_Back(t *testing.T) {
	s := newSequencer(t, RoleMarket)

	assert.Equal(t, 1, s.Back(1))
	assert.Equal(t, 1, s.Back(2))
	assert.Equal(t, 3, s.Back(4))
	assert.Equal(t, 1, s.Back(-3))
	assert.Equal(t, 4, s.Back(9))
}

func TestSequencer_CanJump(t *testing.T) {
	s := newSequencer(t, RoleWorker)

	tests := []struct {
		current, target int
		want            bool
	}{
		{current: 3, target: 1, want: true},
		{current: 3, target: 2, want: true},
		{current: 3, target: 3, want: false},
		{current: 3, target: 4, want: false},
		{current: 1, target: 1, want: false},
		{current: 5, target: 0, want: false},
		{current: 9, target: 6, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.CanJump(tt.current, tt.target), "current=%d target=%d", tt.current, tt.target)
	}
}

func TestSequencer_Steps(t *testing.T) {
	steps := newSequencer(t, RoleMarket).Steps(3)
	require.Len(t, steps, 4)

	assert.Equal(t, StepState{Number: 1, Label: "Dados da Empresa", Completed: true, Clickable: true}, steps[0])
	assert.Equal(t, StepState{Number: 2, Label: "Endereco", Completed: true, Clickable: true}, steps[1])
	assert.Equal(t, StepState{Number: 3, Label: "Fotos", Current: true}, steps[2])
	assert.Equal(t, StepState{Number: 4, Label: "Contato"}, steps[3])
}
