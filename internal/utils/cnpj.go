package utils

// CNPJLength is the number of digits of a CNPJ
const CNPJLength = 14

// CleanCNPJ removes punctuation from a CNPJ
func CleanCNPJ(cnpj string) string {
	return OnlyDigits(cnpj)
}

// ValidateCNPJ validates a CNPJ number
// It checks if the CNPJ has 14 digits, rejects repeated digits and validates the check digits
func ValidateCNPJ(cnpj string) bool {
	return cnpjScheme.valid(cnpj)
}

// FormatCNPJ renders a CNPJ as XX.XXX.XXX/XXXX-XX.
// Input that does not clean to 14 digits is returned unchanged.
func FormatCNPJ(cnpj string) string {
	d := CleanCNPJ(cnpj)
	if len(d) != CNPJLength {
		return cnpj
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

// CompleteCNPJ appends the two check digits to a 12-digit CNPJ base.
// It returns an empty string when the base is not 12 digits.
func CompleteCNPJ(base string) string {
	d := OnlyDigits(base)
	if len(d) != CNPJLength-2 {
		return ""
	}
	return cnpjScheme.complete(d)
}
