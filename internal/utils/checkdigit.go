package utils

import "strings"

// checkDigitScheme describes a weighted-sum check digit algorithm over a
// fixed-length digit string whose two trailing digits are check digits.
type checkDigitScheme struct {
	length        int
	modulus       int
	firstWeights  []int
	secondWeights []int
}

var (
	cpfScheme = checkDigitScheme{
		length:        11,
		modulus:       11,
		firstWeights:  []int{10, 9, 8, 7, 6, 5, 4, 3, 2},
		secondWeights: []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2},
	}
	cnpjScheme = checkDigitScheme{
		length:        14,
		modulus:       11,
		firstWeights:  []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2},
		secondWeights: []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2},
	}
)

// OnlyDigits strips every non-digit character
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// checkDigit computes the check digit for digits using weights
func (s checkDigitScheme) checkDigit(digits string, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	remainder := sum % s.modulus
	if remainder < 2 {
		return '0'
	}
	return byte('0' + s.modulus - remainder)
}

// valid reports whether a raw identifier passes length, repetition and check digit rules
func (s checkDigitScheme) valid(raw string) bool {
	digits := OnlyDigits(raw)
	if len(digits) != s.length || allSameDigit(digits) {
		return false
	}
	if s.checkDigit(digits, s.firstWeights) != digits[s.length-2] {
		return false
	}
	return s.checkDigit(digits, s.secondWeights) == digits[s.length-1]
}

// complete appends the two check digits to a base of length-2 digits
func (s checkDigitScheme) complete(base string) string {
	withFirst := base + string(s.checkDigit(base, s.firstWeights))
	return withFirst + string(s.checkDigit(withFirst, s.secondWeights))
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
