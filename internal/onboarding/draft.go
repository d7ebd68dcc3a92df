package onboarding

import (
	"strings"

	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/utils"
)

// Role selects one of the two onboarding flows
type Role string

const (
	RoleWorker Role = "worker"
	RoleMarket Role = "market"
)

// ParseRole converts a path segment into a Role
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", models.ErrInvalidRole
	}
	return role, nil
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleWorker || r == RoleMarket
}

// UserType maps the role to the account type set on completion
func (r Role) UserType() models.UserType {
	if r == RoleMarket {
		return models.UserTypeMarket
	}
	return models.UserTypeWorker
}

// Slot names an asset that is filled by the upload gateway
type Slot string

const (
	SlotPhoto    Slot = "photo"
	SlotDocument Slot = "document"
	SlotBanner   Slot = "banner"
)

// Slots lists the asset slots of a role
func (r Role) Slots() []Slot {
	switch r {
	case RoleWorker:
		return []Slot{SlotPhoto, SlotDocument}
	case RoleMarket:
		return []Slot{SlotPhoto, SlotBanner}
	}
	return nil
}

// HasSlot reports whether slot belongs to the role
func (r Role) HasSlot(slot Slot) bool {
	for _, s := range r.Slots() {
		if s == slot {
			return true
		}
	}
	return false
}

// WorkerDraft accumulates the worker flow
type WorkerDraft struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CPF         string `json:"cpf"`
	DateOfBirth string `json:"dateOfBirth"`
	Phone       string `json:"phone"`
	models.Location
	SearchRadius     int      `json:"searchRadius"`
	MinHourlyRate    float64  `json:"minHourlyRate"`
	Skills           []string `json:"skills"`
	PeriodPreference string   `json:"periodPreference"`
	PhotoURL         string   `json:"photoUrl"`
	DocumentURL      string   `json:"documentUrl"`
}

// MarketDraft accumulates the market flow
type MarketDraft struct {
	CNPJ        string `json:"cnpj"`
	LegalName   string `json:"legalName"`
	TradeName   string `json:"tradeName"`
	Description string `json:"description"`
	models.Location
	PhotoURL        string `json:"photoUrl"`
	BannerURL       string `json:"bannerUrl"`
	ResponsibleName string `json:"responsibleName"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
}

// Draft is the onboarding state of one session.
// Exactly one of Worker or Market is set, matching Role.
type Draft struct {
	Role   Role         `json:"role"`
	Worker *WorkerDraft `json:"worker,omitempty"`
	Market *MarketDraft `json:"market,omitempty"`
}

// Check verifies that the populated variant matches the role
func (d Draft) Check() error {
	switch d.Role {
	case RoleWorker:
		if d.Worker == nil || d.Market != nil {
			return models.ErrInvalidRole
		}
	case RoleMarket:
		if d.Market == nil || d.Worker != nil {
			return models.ErrInvalidRole
		}
	default:
		return models.ErrInvalidRole
	}
	return nil
}

// Location returns the shared address fields of either variant
func (d Draft) Location() models.Location {
	switch {
	case d.Worker != nil:
		return d.Worker.Location
	case d.Market != nil:
		return d.Market.Location
	}
	return models.Location{}
}

// AssetURL returns the URL stored in slot, or "" when empty
func (d Draft) AssetURL(slot Slot) string {
	if ptr := d.assetField(slot); ptr != nil {
		return *ptr
	}
	return ""
}

func (d Draft) assetField(slot Slot) *string {
	switch {
	case d.Worker != nil:
		switch slot {
		case SlotPhoto:
			return &d.Worker.PhotoURL
		case SlotDocument:
			return &d.Worker.DocumentURL
		}
	case d.Market != nil:
		switch slot {
		case SlotPhoto:
			return &d.Market.PhotoURL
		case SlotBanner:
			return &d.Market.BannerURL
		}
	}
	return nil
}

func (d Draft) clone() Draft {
	out := Draft{Role: d.Role}
	if d.Worker != nil {
		w := *d.Worker
		if d.Worker.Skills != nil {
			w.Skills = append([]string{}, d.Worker.Skills...)
		}
		out.Worker = &w
	}
	if d.Market != nil {
		m := *d.Market
		out.Market = &m
	}
	return out
}

func defaultDraft(role Role) Draft {
	switch role {
	case RoleWorker:
		return Draft{Role: role, Worker: &WorkerDraft{
			SearchRadius:     models.DefaultSearchRadius,
			MinHourlyRate:    models.DefaultMinHourlyRate,
			Skills:           []string{},
			PeriodPreference: string(models.PeriodIntegral),
		}}
	case RoleMarket:
		return Draft{Role: role, Market: &MarketDraft{}}
	}
	return Draft{}
}

// CreateRequest assembles the final worker payload with digit-only documents.
// Missing coordinates fall back to models.DefaultCoordinates.
func (w WorkerDraft) CreateRequest() models.CreateWorkerRequest {
	lat, lng := coordinates(w.Location)
	radius := w.SearchRadius
	return models.CreateWorkerRequest{
		FirstName:        strings.TrimSpace(w.FirstName),
		LastName:         strings.TrimSpace(w.LastName),
		CPF:              utils.CleanCPF(w.CPF),
		DateOfBirth:      w.DateOfBirth,
		Phone:            w.Phone,
		Address:          w.Address,
		City:             w.City,
		State:            strings.ToUpper(w.State),
		ZipCode:          utils.OnlyDigits(w.ZipCode),
		Lat:              &lat,
		Lng:              &lng,
		SearchRadius:     &radius,
		MinHourlyRate:    w.MinHourlyRate,
		Skills:           append([]string{}, w.Skills...),
		PeriodPreference: w.PeriodPreference,
		PhotoURL:         w.PhotoURL,
		DocumentURL:      w.DocumentURL,
	}
}

// CreateRequest assembles the final market payload with digit-only documents
func (m MarketDraft) CreateRequest() models.CreateMarketRequest {
	lat, lng := coordinates(m.Location)
	return models.CreateMarketRequest{
		CNPJ:            utils.CleanCNPJ(m.CNPJ),
		TradeName:       strings.TrimSpace(m.TradeName),
		LegalName:       strings.TrimSpace(m.LegalName),
		Description:     m.Description,
		Address:         m.Address,
		City:            m.City,
		State:           strings.ToUpper(m.State),
		ZipCode:         utils.OnlyDigits(m.ZipCode),
		Lat:             &lat,
		Lng:             &lng,
		Phone:           m.Phone,
		Email:           m.Email,
		ResponsibleName: strings.TrimSpace(m.ResponsibleName),
		PhotoURL:        m.PhotoURL,
		BannerURL:       m.BannerURL,
	}
}

func coordinates(l models.Location) (float64, float64) {
	if !l.HasCoordinates() {
		return models.DefaultCoordinates.Lat, models.DefaultCoordinates.Lng
	}
	return l.Lat, l.Lng
}
