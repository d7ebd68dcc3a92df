package utils

// CPFLength is the number of digits of a CPF
const CPFLength = 11

// CleanCPF removes punctuation from a CPF
func CleanCPF(cpf string) string {
	return OnlyDigits(cpf)
}

// ValidateCPF validates a CPF number
// It checks if the CPF has 11 digits, rejects repeated digits and validates the check digits
func ValidateCPF(cpf string) bool {
	return cpfScheme.valid(cpf)
}

// FormatCPF renders a CPF as XXX.XXX.XXX-XX.
// Input that does not clean to 11 digits is returned unchanged.
func FormatCPF(cpf string) string {
	d := CleanCPF(cpf)
	if len(d) != CPFLength {
		return cpf
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// CompleteCPF appends the two check digits to a 9-digit CPF base.
// It returns an empty string when the base is not 9 digits.
func CompleteCPF(base string) string {
	d := OnlyDigits(base)
	if len(d) != CPFLength-2 {
		return ""
	}
	return cpfScheme.complete(d)
}
