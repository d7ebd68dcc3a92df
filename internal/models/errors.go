package models

import "errors"

// Error constants for users and profiles
var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUserNotFound          = errors.New("user not found")
	ErrWorkerNotFound        = errors.New("worker profile not found")
	ErrMarketNotFound        = errors.New("market profile not found")
	ErrWorkerProfileExists   = errors.New("worker profile already exists")
	ErrMarketProfileExists   = errors.New("market profile already exists")
	ErrInvalidCPF            = errors.New("invalid CPF")
	ErrInvalidCNPJ           = errors.New("invalid CNPJ")
	ErrCPFAlreadyRegistered  = errors.New("CPF already registered")
	ErrCNPJAlreadyRegistered = errors.New("CNPJ already registered")
	ErrValidation            = errors.New("validation failed")
)

// Error constants for uploads
var (
	ErrUploadEmpty          = errors.New("no file uploaded")
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	ErrUploadTooLarge       = errors.New("file too large")
	ErrUploadInProgress     = errors.New("upload already in progress for this slot")
	ErrInvalidAssetSlot     = errors.New("invalid asset slot")
	ErrNoAssetToRemove      = errors.New("no asset to remove")
)

// Error constants for the onboarding flow
var (
	ErrInvalidRole          = errors.New("invalid onboarding role")
	ErrStepOutOfRange       = errors.New("step out of range")
	ErrStepNotReachable     = errors.New("step not reachable yet")
	ErrJumpNotAllowed       = errors.New("jump to a step not yet completed")
	ErrStepNotValidated     = errors.New("current step has not been validated")
	ErrOnboardingIncomplete = errors.New("onboarding has steps left to complete")
)

// Error constants for external lookups
var (
	ErrCNPJNotFound        = errors.New("CNPJ not found")
	ErrAddressNotFound     = errors.New("address not found")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrUpstreamTimeout     = errors.New("upstream service timed out")
	ErrRateLimited         = errors.New("rate limit exceeded")
)

// FieldError is a validation failure bound to one request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the field errors of a rejected payload.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + e.Fields[0].Field + ": " + e.Fields[0].Message
}

// Is makes errors.Is(err, ErrValidation) succeed
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FirstMessage returns the message of the first failing field
func (e *ValidationError) FirstMessage() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Message
}

// NewValidationError builds a ValidationError from field/message pairs
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}
