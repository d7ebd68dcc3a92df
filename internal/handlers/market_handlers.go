package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/onboarding"
	"github.com/trampoja/app-onboarding/internal/services"
	"go.uber.org/zap"
)

// MarketHandlers handles market profile operations
type MarketHandlers struct {
	logger  *logging.SafeLogger
	users   *services.UserService
	markets *services.MarketService
	uploads *services.UploadService
}

// NewMarketHandlers creates a new market handlers instance
func NewMarketHandlers(logger *logging.SafeLogger, users *services.UserService, markets *services.MarketService, uploads *services.UploadService) *MarketHandlers {
	return &MarketHandlers{
		logger:  logger,
		users:   users,
		markets: markets,
		uploads: uploads,
	}
}

// CreateMarket godoc
// @Summary Cadastrar mercado
// @Description Cria o perfil de mercado do usuario autenticado. CNPJ e CEP devem conter apenas digitos.
// @Tags Markets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param market body models.CreateMarketRequest true "Dados do mercado"
// @Success 201 {object} models.SuccessResponse{data=models.Market}
// @Failure 400 {object} models.ErrorResponse "Dados invalidos ou CNPJ invalido"
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Perfil ja existe ou CNPJ ja cadastrado"
// @Failure 500 {object} models.ErrorResponse
// @Router /v1/markets [post]
func (h *MarketHandlers) CreateMarket(c *gin.Context) {
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, "create_market", err)
		return
	}

	var req models.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	market, err := h.markets.Create(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, h.logger, "create_market", err)
		return
	}
	c.JSON(http.StatusCreated, models.NewSuccess(market))
}

// GetMyMarket godoc
// @Summary Obter meu perfil de mercado
// @Tags Markets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SuccessResponse{data=models.Market}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /v1/markets/me [get]
func (h *MarketHandlers) GetMyMarket(c *gin.Context) {
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, "get_market", err)
		return
	}
	market, err := h.markets.Get(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, "get_market", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(market))
}

// UpdateMyMarket godoc
// @Summary Atualizar meu perfil de mercado
// @Description Atualizacao parcial; o CNPJ nao pode ser alterado
// @Tags Markets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param market body models.UpdateMarketRequest true "Campos a atualizar"
// @Success 200 {object} models.SuccessResponse{data=models.Market}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /v1/markets/me [patch]
func (h *MarketHandlers) UpdateMyMarket(c *gin.Context) {
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, "update_market", err)
		return
	}

	var req models.UpdateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	market, err := h.markets.Update(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, h.logger, "update_market", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(market))
}

// marketSlot maps a market photo field to the upload lock slot
func marketSlot(field models.MarketPhotoField) onboarding.Slot {
	if field == models.MarketPhotoFieldBanner {
		return onboarding.SlotBanner
	}
	return onboarding.SlotPhoto
}

// UploadPhoto godoc
// @Summary Enviar foto do mercado
// @Description Recebe o arquivo multipart "file" (JPEG/PNG/WebP, ate 5MB) para o campo "photoUrl" (padrao) ou "bannerUrl"
// @Tags Markets
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Imagem"
// @Param field formData string false "photoUrl ou bannerUrl"
// @Success 201 {object} models.SuccessResponse{data=models.MarketPhotoResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Envio em andamento"
// @Failure 413 {object} models.ErrorResponse
// @Router /v1/markets/me/photos [post]
func (h *MarketHandlers) UploadPhoto(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, "upload_market_photo", err)
		return
	}
	if _, err := h.markets.Get(ctx, user); err != nil {
		respondError(c, h.logger, "upload_market_photo", err)
		return
	}

	file, err := formFile(c, "file")
	if err != nil {
		badRequest(c, msgInvalidBody)
		return
	}
	if file == nil {
		badRequest(c, "Nenhum arquivo enviado")
		return
	}
	field := models.MarketPhotoField(c.DefaultPostForm("field", string(models.MarketPhotoFieldPhoto)))
	if !field.IsValid() {
		respondError(c, h.logger, "upload_market_photo", models.ErrInvalidAssetSlot)
		return
	}

	release, err := h.uploads.AcquireSlot(ctx, user.ID.Hex(), string(marketSlot(field)))
	if err != nil {
		respondError(c, h.logger, "upload_market_photo", err)
		return
	}
	defer release()

	url, err := saveFile(ctx, h.uploads, services.MarketPhotoPolicy, file)
	if err != nil {
		respondError(c, h.logger, "upload_market_photo", err)
		return
	}

	market, previous, err := h.markets.SetPhoto(ctx, user, field, url)
	if err != nil {
		if delErr := h.uploads.Delete(ctx, url); delErr != nil {
			h.logger.Warn("failed to delete orphan upload", zap.String("url", url), zap.Error(delErr))
		}
		respondError(c, h.logger, "upload_market_photo", err)
		return
	}
	deleteReplaced(ctx, h.uploads, h.logger, previous, url)

	c.JSON(http.StatusCreated, models.NewSuccess(models.MarketPhotoResponse{URL: url, Field: field, Market: market}))
}

// RemovePhoto godoc
// @Summary Remover foto do mercado
// @Tags Markets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.MarketPhotoRemoveRequest true "Campo a remover"
// @Success 200 {object} models.SuccessResponse{data=models.Market}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Nenhuma foto para remover"
// @Router /v1/markets/me/photos [delete]
func (h *MarketHandlers) RemovePhoto(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, "remove_market_photo", err)
		return
	}

	var req models.MarketPhotoRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Field.IsValid() {
		respondError(c, h.logger, "remove_market_photo", models.ErrInvalidAssetSlot)
		return
	}

	market, removed, err := h.markets.ClearPhoto(ctx, user, req.Field)
	if err != nil {
		respondError(c, h.logger, "remove_market_photo", err)
		return
	}
	if err := h.uploads.Delete(ctx, removed); err != nil {
		h.logger.Warn("failed to delete removed photo", zap.String("url", removed), zap.Error(err))
	}
	c.JSON(http.StatusOK, models.NewSuccess(market))
}
