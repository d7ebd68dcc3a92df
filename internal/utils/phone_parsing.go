package utils

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// PhoneComponents represents the parsed components of a Brazilian phone number
type PhoneComponents struct {
	DDD    string `json:"ddd"`
	Number string `json:"number"`
	E164   string `json:"e164"`
}

// National returns DDD and number as stored on profiles, e.g. 11987654321
func (p PhoneComponents) National() string {
	return p.DDD + p.Number
}

// ParseBrazilianPhone parses a phone number in any common notation, with or
// without the +55 prefix, and returns its components.
func ParseBrazilianPhone(phoneString string) (*PhoneComponents, error) {
	cleanPhone := strings.TrimSpace(phoneString)
	if cleanPhone == "" {
		return nil, fmt.Errorf("empty phone number")
	}

	num, err := phonenumbers.Parse(cleanPhone, "BR")
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}

	if num.GetCountryCode() != 55 {
		return nil, fmt.Errorf("phone number is not Brazilian: %s", phoneString)
	}
	if !phonenumbers.IsValidNumber(num) {
		return nil, fmt.Errorf("invalid phone number: %s", phoneString)
	}

	nationalNumber := phonenumbers.GetNationalSignificantNumber(num)
	if len(nationalNumber) < 10 {
		return nil, fmt.Errorf("invalid phone number: %s", phoneString)
	}

	return &PhoneComponents{
		DDD:    nationalNumber[:2],
		Number: nationalNumber[2:],
		E164:   phonenumbers.Format(num, phonenumbers.E164),
	}, nil
}

// NormalizeBrazilianPhone returns the digit-only national form (DDD + number)
func NormalizeBrazilianPhone(phoneString string) (string, error) {
	components, err := ParseBrazilianPhone(phoneString)
	if err != nil {
		return "", err
	}
	return components.National(), nil
}
