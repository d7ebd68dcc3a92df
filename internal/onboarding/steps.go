package onboarding

import (
	"fmt"

	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/validation"
)

// stepFields lists the patch fields owned by each step
var stepFields = map[Role][][]string{
	RoleWorker: {
		{"firstName", "lastName", "cpf", "dateOfBirth", "phone"},
		{"address", "city", "state", "zipCode", "lat", "lng", "searchRadius"},
		{},
		{"skills"},
		{"minHourlyRate", "periodPreference"},
	},
	RoleMarket: {
		{"cnpj", "legalName", "tradeName", "description"},
		{"address", "city", "state", "zipCode", "lat", "lng"},
		{},
		{"responsibleName", "phone", "email"},
	},
}

// StepFields returns the patch fields step accepts
func StepFields(role Role, step int) []string {
	steps := stepFields[role]
	if step < 1 || step > len(steps) {
		return nil
	}
	return steps[step-1]
}

// CheckPatchFields rejects a patch that sets fields owned by another step
func CheckPatchFields(role Role, step int, patch Patch) error {
	owned := make(map[string]bool)
	for _, f := range StepFields(role, step) {
		owned[f] = true
	}

	var foreign []models.FieldError
	for _, f := range Fields(patch) {
		if !owned[f] {
			foreign = append(foreign, models.FieldError{Field: f, Message: "Campo nao pertence a esta etapa"})
		}
	}
	if len(foreign) > 0 {
		return models.NewValidationError(foreign...)
	}
	return nil
}

type workerPersonal struct {
	FirstName   string `json:"firstName" validate:"required,name"`
	LastName    string `json:"lastName" validate:"required,name"`
	CPF         string `json:"cpf" validate:"required,len=11,numeric,cpf"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,birthdate"`
	Phone       string `json:"phone" validate:"required,min=10,brphone"`
}

type addressStep struct {
	Address string   `json:"address" validate:"required,min=5"`
	City    string   `json:"city" validate:"required,min=2"`
	State   string   `json:"state" validate:"required,len=2,uf"`
	ZipCode string   `json:"zipCode" validate:"required,len=8,numeric"`
	Lat     *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng     *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
}

type workerAddress struct {
	Address      string   `json:"address" validate:"required,min=5"`
	City         string   `json:"city" validate:"required,min=2"`
	State        string   `json:"state" validate:"required,len=2,uf"`
	ZipCode      string   `json:"zipCode" validate:"required,len=8,numeric"`
	Lat          *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng          *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
	SearchRadius int      `json:"searchRadius" validate:"min=1,max=50"`
}

type workerDocuments struct {
	PhotoURL    string `json:"photoUrl" validate:"required"`
	DocumentURL string `json:"documentUrl" validate:"required"`
}

type workerSkills struct {
	Skills []string `json:"skills" validate:"required,min=1,dive,skill"`
}

type workerAvailability struct {
	MinHourlyRate    float64 `json:"minHourlyRate" validate:"min=8"`
	PeriodPreference string  `json:"periodPreference" validate:"required,period"`
}

type marketCompany struct {
	CNPJ        string `json:"cnpj" validate:"required,len=14,numeric,cnpj"`
	LegalName   string `json:"legalName" validate:"required,name"`
	TradeName   string `json:"tradeName" validate:"required,name"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

type marketContact struct {
	ResponsibleName string `json:"responsibleName" validate:"required,name"`
	Phone           string `json:"phone" validate:"omitempty,min=10,brphone"`
	Email           string `json:"email" validate:"omitempty,email"`
}

func addressOf(l models.Location) addressStep {
	a := addressStep{Address: l.Address, City: l.City, State: l.State, ZipCode: l.ZipCode}
	if l.HasCoordinates() {
		lat, lng := l.Lat, l.Lng
		a.Lat, a.Lng = &lat, &lng
	}
	return a
}

// ValidateStep checks the fields owned by step against the merged draft
func ValidateStep(d Draft, step int) error {
	if err := d.Check(); err != nil {
		return err
	}

	var view interface{}
	switch d.Role {
	case RoleWorker:
		w := d.Worker
		switch step {
		case 1:
			view = workerPersonal{FirstName: w.FirstName, LastName: w.LastName, CPF: w.CPF, DateOfBirth: w.DateOfBirth, Phone: w.Phone}
		case 2:
			a := addressOf(w.Location)
			view = workerAddress{Address: a.Address, City: a.City, State: a.State, ZipCode: a.ZipCode, Lat: a.Lat, Lng: a.Lng, SearchRadius: w.SearchRadius}
		case 3:
			view = workerDocuments{PhotoURL: w.PhotoURL, DocumentURL: w.DocumentURL}
		case 4:
			view = workerSkills{Skills: w.Skills}
		case 5:
			view = workerAvailability{MinHourlyRate: w.MinHourlyRate, PeriodPreference: w.PeriodPreference}
		}
	case RoleMarket:
		m := d.Market
		switch step {
		case 1:
			view = marketCompany{CNPJ: m.CNPJ, LegalName: m.LegalName, TradeName: m.TradeName, Description: m.Description}
		case 2:
			view = addressOf(m.Location)
		case 3:
			// logo and banner are optional
			return nil
		case 4:
			view = marketContact{ResponsibleName: m.ResponsibleName, Phone: m.Phone, Email: m.Email}
		}
	}

	if view == nil {
		return fmt.Errorf("validate %s step %d: %w", d.Role, step, models.ErrStepOutOfRange)
	}
	return validation.Struct(view)
}

// ValidateComplete revalidates every step of d, then the assembled
// submission payload. A slot cleared after its step was submitted fails here.
func ValidateComplete(d Draft) error {
	if err := d.Check(); err != nil {
		return err
	}
	seq, err := NewSequencer(d.Role)
	if err != nil {
		return err
	}
	for step := 1; step <= seq.Total(); step++ {
		if err := ValidateStep(d, step); err != nil {
			return err
		}
	}
	if d.Role == RoleWorker {
		return validation.Struct(d.Worker.CreateRequest())
	}
	return validation.Struct(d.Market.CreateRequest())
}

// StepOwnsField reports whether field belongs to step
func StepOwnsField(role Role, step int, field string) bool {
	for _, f := range StepFields(role, step) {
		if f == field {
			return true
		}
	}
	return false
}
