package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trampoja/app-onboarding/internal/models"
)

const brasilAPIBody = `{
	"cnpj": "11222333000181",
	"razao_social": "BOM PRECO COMERCIO DE ALIMENTOS LTDA",
	"nome_fantasia": "",
	"logradouro": "AVENIDA PAULISTA",
	"numero": "1500",
	"complemento": "",
	"bairro": "BELA VISTA",
	"municipio": "SAO PAULO",
	"uf": "sp",
	"cep": "01310-200"
}`

func newBrasilAPIServer(t *testing.T, status int, body string, delay time.Duration) (*httptest.Server, *int32) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/cnpj/v1/11222333000181", r.URL.Path)
		if delay > 0 {
			time.Sleep(delay)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestCNPJLookupService_Lookup(t *testing.T) {
	server, calls := newBrasilAPIServer(t, http.StatusOK, brasilAPIBody, 0)
	kv := newFakeKV()
	svc := NewCNPJLookupService(server.Client(), server.URL+"/", kv, time.Hour, 60, testLogger())

	result, err := svc.Lookup(context.Background(), "11.222.333/0001-81")
	require.NoError(t, err)
	assert.Equal(t, &models.CNPJLookupResult{
		CNPJ:      "11222333000181",
		LegalName: "BOM PRECO COMERCIO DE ALIMENTOS LTDA",
		TradeName: "BOM PRECO COMERCIO DE ALIMENTOS LTDA",
		Address:   "AVENIDA PAULISTA, 1500, BELA VISTA",
		City:      "SAO PAULO",
		State:     "SP",
		ZipCode:   "01310200",
	}, result)
	assert.Equal(t, time.Hour, kv.ttls["cnpj:lookup:11222333000181"])

	again, err := svc.Lookup(context.Background(), "11222333000181")
	require.NoError(t, err)
	assert.Equal(t, result, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "second lookup is served from cache")
}

func TestCNPJLookupService_InvalidChecksumSkipsUpstream(t *testing.T) {
	server, calls := newBrasilAPIServer(t, http.StatusOK, brasilAPIBody, 0)
	svc := NewCNPJLookupService(server.Client(), server.URL, newFakeKV(), time.Hour, 60, testLogger())

	_, err := svc.Lookup(context.Background(), "11222333000182")
	assert.ErrorIs(t, err, models.ErrInvalidCNPJ)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestCNPJLookupService_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		err    error
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"message":"CNPJ nao encontrado"}`, err: models.ErrCNPJNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: ``, err: models.ErrUpstreamUnavailable},
		{name: "bad json", status: http.StatusOK, body: `{`, err: models.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newBrasilAPIServer(t, tt.status, tt.body, 0)
			kv := newFakeKV()
			svc := NewCNPJLookupService(server.Client(), server.URL, kv, time.Hour, 60, testLogger())

			_, err := svc.Lookup(context.Background(), "11222333000181")
			assert.ErrorIs(t, err, tt.err)
			assert.False(t, kv.has("cnpj:lookup:11222333000181"), "failures are not cached")
		})
	}
}

func TestCNPJLookupService_Timeout(t *testing.T) {
	server, _ := newBrasilAPIServer(t, http.StatusOK, brasilAPIBody, 200*time.Millisecond)
	client := server.Client()
	client.Timeout = 20 * time.Millisecond
	svc := NewCNPJLookupService(client, server.URL, newFakeKV(), time.Hour, 60, testLogger())

	_, err := svc.Lookup(context.Background(), "11222333000181")
	assert.ErrorIs(t, err, models.ErrUpstreamTimeout)
}

func TestCNPJLookupService_RateLimited(t *testing.T) {
	server, calls := newBrasilAPIServer(t, http.StatusNotFound, `{}`, 0)
	svc := NewCNPJLookupService(server.Client(), server.URL, newFakeKV(), time.Hour, 1, testLogger())

	_, err := svc.Lookup(context.Background(), "11222333000181")
	assert.ErrorIs(t, err, models.ErrCNPJNotFound)

	_, err = svc.Lookup(context.Background(), "11222333000181")
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestCNPJLookupService_CacheUnavailable(t *testing.T) {
	server, _ := newBrasilAPIServer(t, http.StatusOK, brasilAPIBody, 0)
	kv := newFakeKV()
	kv.err = assert.AnError
	svc := NewCNPJLookupService(server.Client(), server.URL, kv, time.Hour, 60, testLogger())

	result, err := svc.Lookup(context.Background(), "11222333000181")
	require.NoError(t, err)
	assert.Equal(t, "SAO PAULO", result.City)
}

func TestBrasilAPICompany_PrefersTradeName(t *testing.T) {
	c := brasilAPICompany{RazaoSocial: "ACME LTDA", NomeFantasia: "Acme", Complemento: "Loja 2", Logradouro: "Rua A"}

	result := c.result("11222333000181")
	assert.Equal(t, "Acme", result.TradeName)
	assert.Equal(t, "Rua A, Loja 2", result.Address)
}
