package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/observability"
	"github.com/trampoja/app-onboarding/internal/services"
	"github.com/trampoja/app-onboarding/internal/utils"
)

// DocumentHandlers validates documents and looks up company data
type DocumentHandlers struct {
	logger    *logging.SafeLogger
	validator utils.DocumentValidator
	lookup    *services.CNPJLookupService
}

// NewDocumentHandlers creates a new document handlers instance
func NewDocumentHandlers(logger *logging.SafeLogger, validator utils.DocumentValidator, lookup *services.CNPJLookupService) *DocumentHandlers {
	return &DocumentHandlers{
		logger:    logger,
		validator: validator,
		lookup:    lookup,
	}
}

// CheckCPF godoc
// @Summary Validar CPF
// @Description Verifica os digitos verificadores de um CPF, com ou sem pontuacao
// @Tags Documents
// @Produce json
// @Param cpf path string true "CPF"
// @Success 200 {object} models.SuccessResponse{data=models.DocumentCheckResponse}
// @Router /v1/documents/cpf/{cpf} [get]
func (h *DocumentHandlers) CheckCPF(c *gin.Context) {
	input := c.Param("cpf")
	result := h.validator.ValidateCPF(input)
	c.JSON(http.StatusOK, models.NewSuccess(documentCheck("cpf", input, result, utils.CleanCPF, utils.FormatCPF)))
}

// CheckCNPJ godoc
// @Summary Validar CNPJ
// @Description Verifica os digitos verificadores de um CNPJ, com ou sem pontuacao
// @Tags Documents
// @Produce json
// @Param cnpj path string true "CNPJ"
// @Success 200 {object} models.SuccessResponse{data=models.DocumentCheckResponse}
// @Router /v1/documents/cnpj/{cnpj} [get]
func (h *DocumentHandlers) CheckCNPJ(c *gin.Context) {
	input := c.Param("cnpj")
	result := h.validator.ValidateCNPJ(input)
	c.JSON(http.StatusOK, models.NewSuccess(documentCheck("cnpj", input, result, utils.CleanCNPJ, utils.FormatCNPJ)))
}

// documentCheck builds the check view of input and counts the outcome
func documentCheck(kind, input string, result utils.DocumentResult, clean, format func(string) string) models.DocumentCheckResponse {
	outcome := "invalid"
	if result.Valid {
		outcome = "valid"
	}
	observability.DocumentValidations.WithLabelValues(kind, outcome).Inc()

	resp := models.DocumentCheckResponse{
		Type:    kind,
		Input:   input,
		Digits:  clean(input),
		Valid:   result.Valid,
		Message: result.Error,
	}
	if result.Valid {
		resp.Formatted = format(input)
	}
	return resp
}

// LookupCNPJ godoc
// @Summary Consultar CNPJ
// @Description Consulta razao social, nome fantasia e endereco de um CNPJ valido na BrasilAPI para preencher o cadastro do mercado
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param cnpj path string true "CNPJ"
// @Success 200 {object} models.SuccessResponse{data=models.CNPJLookupResult}
// @Failure 400 {object} models.ErrorResponse "CNPJ invalido"
// @Failure 404 {object} models.ErrorResponse "CNPJ nao encontrado"
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /v1/cnpj/{cnpj} [get]
func (h *DocumentHandlers) LookupCNPJ(c *gin.Context) {
	result, err := h.lookup.Lookup(c.Request.Context(), c.Param("cnpj"))
	if err != nil {
		respondError(c, h.logger, "lookup_cnpj", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(result))
}
