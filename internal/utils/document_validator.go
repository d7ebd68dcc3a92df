package utils

import (
	"strconv"
	"strings"
)

// DocumentResult is the outcome of validating one document field
type DocumentResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// DocumentValidator validates Brazilian documents for form feedback
type DocumentValidator interface {
	ValidateCPF(cpf string) DocumentResult
	ValidateCNPJ(cnpj string) DocumentResult
}

type localDocumentValidator struct{}

// NewDocumentValidator returns the checksum-based validator
func NewDocumentValidator() DocumentValidator {
	return localDocumentValidator{}
}

func (localDocumentValidator) ValidateCPF(cpf string) DocumentResult {
	return validateDocument(cpf, "CPF", CPFLength, ValidateCPF)
}

func (localDocumentValidator) ValidateCNPJ(cnpj string) DocumentResult {
	return validateDocument(cnpj, "CNPJ", CNPJLength, ValidateCNPJ)
}

func validateDocument(value, label string, length int, valid func(string) bool) DocumentResult {
	if strings.TrimSpace(value) == "" {
		return DocumentResult{Error: label + " is required"}
	}
	if len(OnlyDigits(value)) != length {
		return DocumentResult{Error: label + " must have " + strconv.Itoa(length) + " digits"}
	}
	if !valid(value) {
		return DocumentResult{Error: "Invalid " + label}
	}
	return DocumentResult{Valid: true}
}

