package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/middleware"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/services"
)

// UserHandlers handles the authenticated account
type UserHandlers struct {
	logger *logging.SafeLogger
	users  *services.UserService
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(logger *logging.SafeLogger, users *services.UserService) *UserHandlers {
	return &UserHandlers{logger: logger, users: users}
}

// GetMe godoc
// @Summary Obter usuario atual
// @Description Retorna o usuario autenticado com o perfil de trabalhador ou mercado, se houver. O usuario e criado no primeiro acesso.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SuccessResponse{data=models.MeResponse}
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /v1/me [get]
func (h *UserHandlers) GetMe(c *gin.Context) {
	claims, err := middleware.ClaimsFromContext(c)
	if err != nil {
		respondError(c, h.logger, "get_me", err)
		return
	}
	me, err := h.users.Me(c.Request.Context(), claims)
	if err != nil {
		respondError(c, h.logger, "get_me", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(me))
}
