package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trampoja/app-onboarding/internal/models"
)

func floatPtr(f float64) *float64 { return &f }

func validWorker() models.CreateWorkerRequest {
	return models.CreateWorkerRequest{
		FirstName:     "Carlos",
		LastName:      "Silva",
		CPF:           "52998224725",
		DateOfBirth:   "1995-03-15",
		Phone:         "11987654321",
		Address:       "Rua Domingos de Morais, 1200",
		City:          "Sao Paulo",
		State:         "SP",
		ZipCode:       "04010200",
		Lat:           floatPtr(-23.5874),
		Lng:           floatPtr(-46.6388),
		MinHourlyRate: 18,
		Skills:        []string{"REPOSITOR", "ESTOQUISTA"},
	}
}

func fieldMessagesOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr), "expected *models.ValidationError, got %v", err)
	out := map[string]string{}
	for _, f := range verr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestStruct_ValidWorker(t *testing.T) {
	assert.NoError(t, Struct(validWorker()))
}

func TestStruct_WorkerFieldMessages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.CreateWorkerRequest)
		field   string
		message string
	}{
		{name: "short first name", mutate: func(r *models.CreateWorkerRequest) { r.FirstName = "C" }, field: "firstName", message: "Nome deve ter pelo menos 2 caracteres"},
		{name: "cpf length", mutate: func(r *models.CreateWorkerRequest) { r.CPF = "5299822472" }, field: "cpf", message: "CPF deve ter 11 digitos"},
		{name: "cpf checksum", mutate: func(r *models.CreateWorkerRequest) { r.CPF = "52998224726" }, field: "cpf", message: "CPF invalido"},
		{name: "formatted cpf is rejected", mutate: func(r *models.CreateWorkerRequest) { r.CPF = "529.982.247-25" }, field: "cpf", message: "CPF deve ter 11 digitos"},
		{name: "date format", mutate: func(r *models.CreateWorkerRequest) { r.DateOfBirth = "15/03/1995" }, field: "dateOfBirth", message: "Data invalida"},
		{name: "phone", mutate: func(r *models.CreateWorkerRequest) { r.Phone = "123" }, field: "phone", message: "Telefone invalido"},
		{name: "state letters", mutate: func(r *models.CreateWorkerRequest) { r.State = "XX" }, field: "state", message: "UF invalida"},
		{name: "zip length", mutate: func(r *models.CreateWorkerRequest) { r.ZipCode = "04010-200" }, field: "zipCode", message: "CEP deve ter 8 digitos"},
		{name: "lat missing", mutate: func(r *models.CreateWorkerRequest) { r.Lat = nil }, field: "lat", message: "Latitude invalida"},
		{name: "lng range", mutate: func(r *models.CreateWorkerRequest) { r.Lng = floatPtr(200) }, field: "lng", message: "Longitude invalida"},
		{name: "hourly rate", mutate: func(r *models.CreateWorkerRequest) { r.MinHourlyRate = 7.5 }, field: "minHourlyRate", message: "Valor minimo e R$8,00"},
		{name: "no skills", mutate: func(r *models.CreateWorkerRequest) { r.Skills = nil }, field: "skills", message: "Selecione pelo menos 1 habilidade"},
		{name: "unknown skill", mutate: func(r *models.CreateWorkerRequest) { r.Skills = []string{"CAIXA", "PILOTO"} }, field: "skills", message: "Habilidade invalida"},
		{name: "period", mutate: func(r *models.CreateWorkerRequest) { r.PeriodPreference = "MADRUGADA" }, field: "periodPreference", message: "Periodo invalido"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validWorker()
			tt.mutate(&req)

			err := Struct(req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrValidation))
			assert.Equal(t, tt.message, fieldMessagesOf(t, err)[tt.field])
		})
	}
}

func TestStruct_SearchRadiusBounds(t *testing.T) {
	for _, radius := range []int{0, 51} {
		req := validWorker()
		r := radius
		req.SearchRadius = &r
		assert.Contains(t, fieldMessagesOf(t, Struct(req)), "searchRadius")
	}

	req := validWorker()
	r := 50
	req.SearchRadius = &r
	assert.NoError(t, Struct(req))
}

func TestStruct_Market(t *testing.T) {
	req := models.CreateMarketRequest{
		CNPJ:      "11444777000161",
		TradeName: "Mercado Bom Preco",
		LegalName: "Bom Preco Comercio de Alimentos LTDA",
		Address:   "Av. Paulista, 1000",
		City:      "Sao Paulo",
		State:     "SP",
		ZipCode:   "01310100",
		Lat:       floatPtr(-23.56),
		Lng:       floatPtr(-46.65),
	}
	assert.NoError(t, Struct(req))

	req.CNPJ = "11444777000162"
	req.Email = "not-an-email"
	msgs := fieldMessagesOf(t, Struct(req))
	assert.Equal(t, "CNPJ invalido", msgs["cnpj"])
	assert.Equal(t, "Email invalido", msgs["email"])
}

func TestStruct_UpdateRequestsSkipNilFields(t *testing.T) {
	assert.NoError(t, Struct(models.UpdateWorkerRequest{}))
	assert.NoError(t, Struct(models.UpdateMarketRequest{}))

	bad := "X"
	msgs := fieldMessagesOf(t, Struct(models.UpdateWorkerRequest{State: &bad}))
	assert.Equal(t, "Estado deve ter 2 letras", msgs["state"])
}

func TestTranslate_NonValidatorError(t *testing.T) {
	plain := errors.New("boom")
	assert.Equal(t, plain, Translate(plain))
}

func TestMessage_Fallbacks(t *testing.T) {
	assert.Equal(t, "CPF invalido", Message("cpf", "cpf"))
	assert.Equal(t, "CPF deve ter 11 digitos", Message("cpf", "len"))
	assert.Equal(t, "Campo invalido", Message("unknown", "required"))
}
