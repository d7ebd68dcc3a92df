package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Skill is a job category a worker can perform
type Skill string

const (
	SkillRepositor       Skill = "REPOSITOR"
	SkillCaixa           Skill = "CAIXA"
	SkillEstoquista      Skill = "ESTOQUISTA"
	SkillLimpeza         Skill = "LIMPEZA"
	SkillPromotor        Skill = "PROMOTOR"
	SkillAtendente       Skill = "ATENDENTE"
	SkillEmpacotador     Skill = "EMPACOTADOR"
	SkillAuxiliarCozinha Skill = "AUXILIAR_COZINHA"
	SkillBalconista      Skill = "BALCONISTA"
	SkillOutro           Skill = "OUTRO"
)

// AllSkills lists skills in display order
var AllSkills = []Skill{
	SkillRepositor, SkillCaixa, SkillEstoquista, SkillLimpeza, SkillPromotor,
	SkillAtendente, SkillEmpacotador, SkillAuxiliarCozinha, SkillBalconista, SkillOutro,
}

// IsValidSkill checks if a skill value is known
func IsValidSkill(s string) bool {
	for _, skill := range AllSkills {
		if string(skill) == s {
			return true
		}
	}
	return false
}

// Period is the preferred shift of a worker
type Period string

const (
	PeriodManha    Period = "MANHA"
	PeriodTarde    Period = "TARDE"
	PeriodNoite    Period = "NOITE"
	PeriodIntegral Period = "INTEGRAL"
)

// IsValidPeriod checks if a period value is known
func IsValidPeriod(p string) bool {
	switch Period(p) {
	case PeriodManha, PeriodTarde, PeriodNoite, PeriodIntegral:
		return true
	}
	return false
}

// Worker defaults applied when an onboarding flow starts
const (
	DefaultSearchRadius  = 10
	DefaultMinHourlyRate = 15.0
	MinimumHourlyRate    = 8.0
)

// Worker is a persisted worker profile
type Worker struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"user_id" json:"userId"`
	CPF              string             `bson:"cpf" json:"cpf"`
	FirstName        string             `bson:"first_name" json:"firstName"`
	LastName         string             `bson:"last_name" json:"lastName"`
	Bio              string             `bson:"bio,omitempty" json:"bio,omitempty"`
	DateOfBirth      time.Time          `bson:"date_of_birth" json:"dateOfBirth"`
	Location         `bson:",inline"`
	SearchRadius     int       `bson:"search_radius" json:"searchRadius"`
	MinHourlyRate    float64   `bson:"min_hourly_rate" json:"minHourlyRate"`
	Skills           []Skill   `bson:"skills" json:"skills"`
	PeriodPreference Period    `bson:"period_preference" json:"periodPreference"`
	PhotoURL         string    `bson:"photo_url,omitempty" json:"photoUrl,omitempty"`
	DocumentURL      string    `bson:"document_url,omitempty" json:"documentUrl,omitempty"`
	Level            int       `bson:"level" json:"level"`
	Rating           float64   `bson:"rating" json:"rating"`
	TotalJobs        int       `bson:"total_jobs" json:"totalJobs"`
	TotalEarnings    float64   `bson:"total_earnings" json:"totalEarnings"`
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updatedAt"`
}

// CreateWorkerRequest is the payload of POST /v1/workers.
// Documents and zip codes must be digit-only at this boundary.
type CreateWorkerRequest struct {
	FirstName        string   `json:"firstName" validate:"required,name"`
	LastName         string   `json:"lastName" validate:"required,name"`
	CPF              string   `json:"cpf" validate:"required,len=11,numeric,cpf"`
	DateOfBirth      string   `json:"dateOfBirth" validate:"required,birthdate"`
	Phone            string   `json:"phone" validate:"required,min=10,brphone"`
	Address          string   `json:"address" validate:"required,min=5"`
	City             string   `json:"city" validate:"required,min=2"`
	State            string   `json:"state" validate:"required,len=2,uf"`
	ZipCode          string   `json:"zipCode" validate:"required,len=8,numeric"`
	Lat              *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng              *float64 `json:"lng" validate:"required,min=-180,max=180"`
	SearchRadius     *int     `json:"searchRadius" validate:"omitempty,min=1,max=50"`
	MinHourlyRate    float64  `json:"minHourlyRate" validate:"min=8"`
	Skills           []string `json:"skills" validate:"required,min=1,dive,skill"`
	PeriodPreference string   `json:"periodPreference,omitempty" validate:"omitempty,period"`
	PhotoURL         string   `json:"photoUrl,omitempty"`
	DocumentURL      string   `json:"documentUrl,omitempty"`
}

// UpdateWorkerRequest is the payload of PATCH /v1/workers/me.
// The CPF cannot be changed; nil fields are left untouched.
type UpdateWorkerRequest struct {
	FirstName        *string   `json:"firstName,omitempty" validate:"omitempty,name"`
	LastName         *string   `json:"lastName,omitempty" validate:"omitempty,name"`
	DateOfBirth      *string   `json:"dateOfBirth,omitempty" validate:"omitempty,birthdate"`
	Phone            *string   `json:"phone,omitempty" validate:"omitempty,min=10,brphone"`
	Bio              *string   `json:"bio,omitempty" validate:"omitempty,max=500"`
	Address          *string   `json:"address,omitempty" validate:"omitempty,min=5"`
	City             *string   `json:"city,omitempty" validate:"omitempty,min=2"`
	State            *string   `json:"state,omitempty" validate:"omitempty,len=2,uf"`
	ZipCode          *string   `json:"zipCode,omitempty" validate:"omitempty,len=8,numeric"`
	Lat              *float64  `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng              *float64  `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
	SearchRadius     *int      `json:"searchRadius,omitempty" validate:"omitempty,min=1,max=50"`
	MinHourlyRate    *float64  `json:"minHourlyRate,omitempty" validate:"omitempty,min=8"`
	Skills           *[]string `json:"skills,omitempty" validate:"omitempty,min=1,dive,skill"`
	PeriodPreference *string   `json:"periodPreference,omitempty" validate:"omitempty,period"`
}

// WorkerAssetsResponse is returned by the worker document upload
type WorkerAssetsResponse struct {
	PhotoURL    string `json:"photoUrl,omitempty"`
	DocumentURL string `json:"documentUrl,omitempty"`
}
