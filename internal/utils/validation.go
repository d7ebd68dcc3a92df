package utils

import (
	"regexp"
	"strings"
	"time"
)

var cepRegex = regexp.MustCompile(`^\d{5}-?\d{3}$`)

// brazilianStates lists the 27 federative units
var brazilianStates = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {},
	"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {},
	"PB": {}, "PR": {}, "PE": {}, "PI": {}, "RJ": {}, "RN": {}, "RS": {},
	"RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

// IsValidUF reports whether uf is a Brazilian state code (case-insensitive)
func IsValidUF(uf string) bool {
	_, ok := brazilianStates[strings.ToUpper(strings.TrimSpace(uf))]
	return ok
}

// IsValidCEP accepts 00000-000 or 00000000
func IsValidCEP(cep string) bool {
	return cepRegex.MatchString(strings.TrimSpace(cep))
}

// NormalizeCEP returns the 8 digits of a valid CEP, or "" when invalid
func NormalizeCEP(cep string) string {
	if !IsValidCEP(cep) {
		return ""
	}
	return OnlyDigits(cep)
}

// ParseBirthDate parses a YYYY-MM-DD date that is a real calendar day in the past
func ParseBirthDate(value string, now time.Time) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	if !date.Before(now) {
		return time.Time{}, false
	}
	return date, true
}

// SanitizeString removes leading/trailing whitespace and normalizes string
func SanitizeString(s string) string {
	return strings.TrimSpace(s)
}

// SanitizeStringPtr sanitizes a string pointer
func SanitizeStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	sanitized := SanitizeString(*s)
	return &sanitized
}
