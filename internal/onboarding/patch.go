package onboarding

import (
	"reflect"
	"strings"

	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/utils"
)

// Patch is a partial update for one role's draft.
// Only non-nil fields are applied.
type Patch interface {
	Role() Role
	normalize()
	applyTo(d *Draft)
}

// WorkerPatch carries the worker fields a step may set
type WorkerPatch struct {
	FirstName        *string   `json:"firstName,omitempty"`
	LastName         *string   `json:"lastName,omitempty"`
	CPF              *string   `json:"cpf,omitempty"`
	DateOfBirth      *string   `json:"dateOfBirth,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	Address          *string   `json:"address,omitempty"`
	City             *string   `json:"city,omitempty"`
	State            *string   `json:"state,omitempty"`
	ZipCode          *string   `json:"zipCode,omitempty"`
	Lat              *float64  `json:"lat,omitempty"`
	Lng              *float64  `json:"lng,omitempty"`
	SearchRadius     *int      `json:"searchRadius,omitempty"`
	MinHourlyRate    *float64  `json:"minHourlyRate,omitempty"`
	Skills           *[]string `json:"skills,omitempty"`
	PeriodPreference *string   `json:"periodPreference,omitempty"`
}

// MarketPatch carries the market fields a step may set
type MarketPatch struct {
	CNPJ            *string  `json:"cnpj,omitempty"`
	LegalName       *string  `json:"legalName,omitempty"`
	TradeName       *string  `json:"tradeName,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Address         *string  `json:"address,omitempty"`
	City            *string  `json:"city,omitempty"`
	State           *string  `json:"state,omitempty"`
	ZipCode         *string  `json:"zipCode,omitempty"`
	Lat             *float64 `json:"lat,omitempty"`
	Lng             *float64 `json:"lng,omitempty"`
	ResponsibleName *string  `json:"responsibleName,omitempty"`
	Phone           *string  `json:"phone,omitempty"`
	Email           *string  `json:"email,omitempty"`
}

// Role implements Patch
func (p *WorkerPatch) Role() Role { return RoleWorker }

// Role implements Patch
func (p *MarketPatch) Role() Role { return RoleMarket }

// NewPatch returns an empty patch for role, ready to be decoded into
func NewPatch(role Role) (Patch, error) {
	switch role {
	case RoleWorker:
		return &WorkerPatch{}, nil
	case RoleMarket:
		return &MarketPatch{}, nil
	}
	return nil, models.ErrInvalidRole
}

func (p *WorkerPatch) normalize() {
	p.FirstName = utils.SanitizeStringPtr(p.FirstName)
	p.LastName = utils.SanitizeStringPtr(p.LastName)
	p.DateOfBirth = utils.SanitizeStringPtr(p.DateOfBirth)
	p.Phone = utils.SanitizeStringPtr(p.Phone)
	p.Address = utils.SanitizeStringPtr(p.Address)
	p.City = utils.SanitizeStringPtr(p.City)
	if p.CPF != nil {
		cpf := utils.CleanCPF(*p.CPF)
		p.CPF = &cpf
	}
	p.State = upperPtr(p.State)
	p.ZipCode = cepPtr(p.ZipCode)
	if p.Skills != nil {
		skills := dedupe(*p.Skills)
		p.Skills = &skills
	}
}

func (p *MarketPatch) normalize() {
	p.LegalName = utils.SanitizeStringPtr(p.LegalName)
	p.TradeName = utils.SanitizeStringPtr(p.TradeName)
	p.Description = utils.SanitizeStringPtr(p.Description)
	p.Address = utils.SanitizeStringPtr(p.Address)
	p.City = utils.SanitizeStringPtr(p.City)
	p.ResponsibleName = utils.SanitizeStringPtr(p.ResponsibleName)
	p.Phone = utils.SanitizeStringPtr(p.Phone)
	p.Email = utils.SanitizeStringPtr(p.Email)
	if p.CNPJ != nil {
		cnpj := utils.CleanCNPJ(*p.CNPJ)
		p.CNPJ = &cnpj
	}
	p.State = upperPtr(p.State)
	p.ZipCode = cepPtr(p.ZipCode)
}

func (p *WorkerPatch) applyTo(d *Draft) {
	w := d.Worker
	setString(&w.FirstName, p.FirstName)
	setString(&w.LastName, p.LastName)
	setString(&w.CPF, p.CPF)
	setString(&w.DateOfBirth, p.DateOfBirth)
	setString(&w.Phone, p.Phone)
	setString(&w.Address, p.Address)
	setString(&w.City, p.City)
	setString(&w.State, p.State)
	setString(&w.ZipCode, p.ZipCode)
	setFloat(&w.Lat, p.Lat)
	setFloat(&w.Lng, p.Lng)
	if p.SearchRadius != nil {
		w.SearchRadius = *p.SearchRadius
	}
	setFloat(&w.MinHourlyRate, p.MinHourlyRate)
	if p.Skills != nil {
		w.Skills = append([]string{}, (*p.Skills)...)
	}
	setString(&w.PeriodPreference, p.PeriodPreference)
}

func (p *MarketPatch) applyTo(d *Draft) {
	m := d.Market
	setString(&m.CNPJ, p.CNPJ)
	setString(&m.LegalName, p.LegalName)
	setString(&m.TradeName, p.TradeName)
	setString(&m.Description, p.Description)
	setString(&m.Address, p.Address)
	setString(&m.City, p.City)
	setString(&m.State, p.State)
	setString(&m.ZipCode, p.ZipCode)
	setFloat(&m.Lat, p.Lat)
	setFloat(&m.Lng, p.Lng)
	setString(&m.ResponsibleName, p.ResponsibleName)
	setString(&m.Phone, p.Phone)
	setString(&m.Email, p.Email)
}

// isNilPatch reports whether p is nil or a typed nil pointer
func isNilPatch(p Patch) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Fields returns the json names of the fields a patch sets
func Fields(p Patch) []string {
	v := reflect.ValueOf(p)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	t := v.Type()

	var fields []string
	for i := 0; i < t.NumField(); i++ {
		if v.Field(i).IsNil() {
			continue
		}
		fields = append(fields, strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0])
	}
	return fields
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	return &v
}

// cepPtr stores valid zip codes as 8 digits and leaves invalid input for validation to reject
func cepPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if digits := utils.NormalizeCEP(v); digits != "" {
		v = digits
	}
	return &v
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// CoordinatesPatch returns a patch for role that sets only lat/lng
func CoordinatesPatch(role Role, lat, lng float64) Patch {
	switch role {
	case RoleWorker:
		return &WorkerPatch{Lat: &lat, Lng: &lng}
	case RoleMarket:
		return &MarketPatch{Lat: &lat, Lng: &lng}
	}
	return nil
}
