package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/services"
	"go.uber.org/zap"
)

const (
	msgInternal     = "Erro interno do servidor"
	msgUnauthorized = "Nao autorizado"
	msgInvalidBody  = "Dados invalidos"
)

// errorStatus maps sentinel errors to the status and message shown to the client
var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{models.ErrUnauthorized, http.StatusUnauthorized, msgUnauthorized},
	{models.ErrUserNotFound, http.StatusNotFound, "Usuario nao encontrado"},
	{models.ErrWorkerNotFound, http.StatusNotFound, "Perfil de trabalhador nao encontrado"},
	{models.ErrMarketNotFound, http.StatusNotFound, "Perfil de mercado nao encontrado"},
	{models.ErrWorkerProfileExists, http.StatusConflict, "Perfil de trabalhador ja cadastrado"},
	{models.ErrMarketProfileExists, http.StatusConflict, "Perfil de mercado ja cadastrado"},
	{models.ErrInvalidCPF, http.StatusBadRequest, "CPF invalido"},
	{models.ErrInvalidCNPJ, http.StatusBadRequest, "CNPJ invalido"},
	{models.ErrCPFAlreadyRegistered, http.StatusConflict, "CPF ja cadastrado"},
	{models.ErrCNPJAlreadyRegistered, http.StatusConflict, "CNPJ ja cadastrado"},
	{models.ErrUploadInProgress, http.StatusConflict, "Ja existe um envio em andamento para este arquivo"},
	{models.ErrInvalidAssetSlot, http.StatusBadRequest, `Campo invalido. Use "photoUrl" ou "bannerUrl"`},
	{models.ErrNoAssetToRemove, http.StatusNotFound, "Nenhuma foto para remover"},
	{models.ErrInvalidRole, http.StatusBadRequest, "Tipo de cadastro invalido. Use \"worker\" ou \"market\""},
	{models.ErrStepOutOfRange, http.StatusBadRequest, "Etapa invalida"},
	{models.ErrStepNotValidated, http.StatusBadRequest, "Etapa atual ainda nao foi validada"},
	{models.ErrStepNotReachable, http.StatusConflict, "Conclua as etapas anteriores primeiro"},
	{models.ErrJumpNotAllowed, http.StatusConflict, "So e possivel voltar para etapas ja concluidas"},
	{models.ErrOnboardingIncomplete, http.StatusConflict, "Conclua todas as etapas antes de enviar"},
	{models.ErrCNPJNotFound, http.StatusNotFound, "CNPJ nao encontrado"},
	{models.ErrAddressNotFound, http.StatusNotFound, "Endereco nao encontrado"},
	{models.ErrRateLimited, http.StatusTooManyRequests, "Muitas consultas. Tente novamente em instantes."},
	{models.ErrUpstreamTimeout, http.StatusGatewayTimeout, "Nao foi possivel consultar o CNPJ. Preencha manualmente."},
	{models.ErrUpstreamUnavailable, http.StatusBadGateway, "Nao foi possivel consultar o CNPJ. Preencha manualmente."},
}

// respondError writes the error envelope for err. Unknown errors are
// logged and answered with a 500.
func respondError(c *gin.Context, logger *logging.SafeLogger, operation string, err error) {
	var uploadErr *services.UploadError
	if errors.As(err, &uploadErr) {
		status := http.StatusBadRequest
		if errors.Is(err, models.ErrUploadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, models.NewError(uploadErr.Message, nil))
		return
	}

	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, models.NewError(validationErr.FirstMessage(), validationErr.Fields))
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				logger.Warn("upstream failure", zap.String("operation", operation), zap.Error(err))
			}
			c.JSON(e.status, models.NewError(e.message, nil))
			return
		}
	}

	logger.Error("request failed", zap.String("operation", operation), zap.Error(err))
	c.JSON(http.StatusInternalServerError, models.NewError(msgInternal, nil))
}

// badRequest writes a 400 with message
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.NewError(message, nil))
}
