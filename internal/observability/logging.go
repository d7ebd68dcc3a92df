package observability

import (
	"github.com/trampoja/app-onboarding/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskCPF masks a CPF number for logging
func MaskCPF(cpf string) string {
	if len(cpf) != 11 {
		return "***.***.***-**"
	}
	return cpf[:3] + ".***." + cpf[6:9] + "-**"
}

// MaskCNPJ masks a CNPJ number for logging, keeping the root and branch visible
func MaskCNPJ(cnpj string) string {
	if len(cnpj) != 14 {
		return "**.***.***/****-**"
	}
	return cnpj[:2] + ".***.***/" + cnpj[8:12] + "-**"
}

var sensitiveFields = map[string]struct{}{
	"cpf":         {},
	"cnpj":        {},
	"phone":       {},
	"email":       {},
	"dateOfBirth": {},
	"documentUrl": {},
}

// MaskSensitiveData masks sensitive draft fields before they are logged
func MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))
	for k, v := range data {
		if _, ok := sensitiveFields[k]; ok {
			masked[k] = "********"
			continue
		}
		masked[k] = v
	}
	return masked
}
