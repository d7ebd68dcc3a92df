package utils

import "strings"

// NormalizeName trims a person or company name and collapses inner whitespace
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// NameLength counts runes, so accented names are measured by letters
func NameLength(name string) int {
	return len([]rune(NormalizeName(name)))
}
