package utils

import "github.com/google/uuid"

// GenerateUUID generates a random (v4) UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

// IsValidUUID reports whether s parses as a UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
