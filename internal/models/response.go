package models

// SuccessResponse is the envelope of every successful API response
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
}

// ErrorResponse is the envelope of every failed API response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	Success bool        `json:"success"`
}

// NewSuccess wraps data in the success envelope
func NewSuccess(data interface{}) SuccessResponse {
	return SuccessResponse{Data: data, Success: true}
}

// NewError builds the error envelope
func NewError(message string, details interface{}) ErrorResponse {
	return ErrorResponse{Error: message, Details: details, Success: false}
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
