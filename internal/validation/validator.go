package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/utils"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// fieldMessages maps "field.tag" (or just "field") to the message shown to users
var fieldMessages = map[string]string{
	"firstName":            "Nome deve ter pelo menos 2 caracteres",
	"lastName":             "Sobrenome deve ter pelo menos 2 caracteres",
	"cpf":                  "CPF deve ter 11 digitos",
	"cpf.cpf":              "CPF invalido",
	"dateOfBirth":          "Data invalida",
	"phone":                "Telefone invalido",
	"address":              "Endereco obrigatorio",
	"city":                 "Cidade obrigatoria",
	"state":                "Estado deve ter 2 letras",
	"state.uf":             "UF invalida",
	"zipCode":              "CEP deve ter 8 digitos",
	"lat":                  "Latitude invalida",
	"lng":                  "Longitude invalida",
	"searchRadius":         "Raio de busca deve estar entre 1 e 50 km",
	"minHourlyRate":        "Valor minimo e R$8,00",
	"skills":               "Selecione pelo menos 1 habilidade",
	"skills.skill":         "Habilidade invalida",
	"periodPreference":     "Periodo invalido",
	"photoUrl":             "Envie uma foto",
	"documentUrl":          "Envie um documento",
	"cnpj":                 "CNPJ deve ter 14 digitos",
	"cnpj.cnpj":            "CNPJ invalido",
	"tradeName":            "Nome fantasia obrigatorio",
	"legalName":            "Razao social obrigatoria",
	"description":          "Descricao muito longa",
	"bio":                  "Bio muito longa",
	"email":                "Email invalido",
	"responsibleName":      "Nome do responsavel obrigatorio",
	"responsibleName.name": "Nome do responsavel deve ter pelo menos 2 caracteres",
}

const defaultMessage = "Campo invalido"

// Validator returns the shared validator with the domain tags registered
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		mustRegister(v, "name", func(fl validator.FieldLevel) bool {
			n := utils.NameLength(fl.Field().String())
			return n >= 2 && n <= 100
		})
		mustRegister(v, "cpf", func(fl validator.FieldLevel) bool {
			return utils.ValidateCPF(fl.Field().String())
		})
		mustRegister(v, "cnpj", func(fl validator.FieldLevel) bool {
			return utils.ValidateCNPJ(fl.Field().String())
		})
		mustRegister(v, "birthdate", func(fl validator.FieldLevel) bool {
			_, ok := utils.ParseBirthDate(fl.Field().String(), time.Now())
			return ok
		})
		mustRegister(v, "brphone", func(fl validator.FieldLevel) bool {
			_, err := utils.ParseBrazilianPhone(fl.Field().String())
			return err == nil
		})
		mustRegister(v, "uf", func(fl validator.FieldLevel) bool {
			return utils.IsValidUF(fl.Field().String())
		})
		mustRegister(v, "skill", func(fl validator.FieldLevel) bool {
			return models.IsValidSkill(fl.Field().String())
		})
		mustRegister(v, "period", func(fl validator.FieldLevel) bool {
			return models.IsValidPeriod(fl.Field().String())
		})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validation: failed to register " + tag + ": " + err.Error())
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// Struct validates s and returns a *models.ValidationError listing every failing field
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	return Translate(err)
}

// Translate converts validator errors into a *models.ValidationError.
// Errors of any other kind are returned unchanged.
func Translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make([]models.FieldError, 0, len(fieldErrs))
	seen := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := baseField(fe.Field())
		if seen[field] {
			continue
		}
		seen[field] = true
		out = append(out, models.FieldError{Field: field, Message: Message(field, fe.Tag())})
	}
	return models.NewValidationError(out...)
}

// Message returns the user-facing message for a failing field and tag
func Message(field, tag string) string {
	if msg, ok := fieldMessages[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := fieldMessages[field]; ok {
		return msg
	}
	return defaultMessage
}

// baseField strips slice indexes, e.g. skills[2] -> skills
func baseField(field string) string {
	if i := strings.IndexByte(field, '['); i >= 0 {
		return field[:i]
	}
	return field
}
