package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/onboarding"
	"github.com/trampoja/app-onboarding/internal/services"
	"go.uber.org/zap"
)

// NavigationRequest is the body of the back and jump operations
type NavigationRequest struct {
	Current int `json:"current"`
	Target  int `json:"target,omitempty"`
}

// OnboardingUploadResponse is returned when an onboarding asset is stored
type OnboardingUploadResponse struct {
	URL     string                      `json:"url"`
	Slot    onboarding.Slot             `json:"slot"`
	Session *services.OnboardingSession `json:"session"`
}

// OnboardingHandlers drives the multi-step worker and market sign-up
type OnboardingHandlers struct {
	logger   *logging.SafeLogger
	users    *services.UserService
	sessions *services.OnboardingSessionService
	uploads  *services.UploadService
}

// NewOnboardingHandlers creates a new onboarding handlers instance
func NewOnboardingHandlers(logger *logging.SafeLogger, users *services.UserService, sessions *services.OnboardingSessionService, uploads *services.UploadService) *OnboardingHandlers {
	return &OnboardingHandlers{
		logger:   logger,
		users:    users,
		sessions: sessions,
		uploads:  uploads,
	}
}

// begin resolves the user and the :role path parameter
func (h *OnboardingHandlers) begin(c *gin.Context, operation string) (*models.User, onboarding.Role, bool) {
	role, err := onboarding.ParseRole(c.Param("role"))
	if err != nil {
		respondError(c, h.logger, operation, err)
		return nil, "", false
	}
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, operation, err)
		return nil, "", false
	}
	return user, role, true
}

// StartOnboarding godoc
// @Summary Iniciar cadastro
// @Description Inicia (ou retoma) o cadastro em etapas como trabalhador ou mercado
// @Tags Onboarding
// @Produce json
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Success 200 {object} models.SuccessResponse{data=services.OnboardingSession}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Perfil ja cadastrado"
// @Router /v1/onboarding/{role}/start [post]
func (h *OnboardingHandlers) StartOnboarding(c *gin.Context) {
	user, role, ok := h.begin(c, "start_onboarding")
	if !ok {
		return
	}
	session, err := h.sessions.Start(c.Request.Context(), user, role)
	if err != nil {
		respondError(c, h.logger, "start_onboarding", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(session))
}

// GetOnboarding godoc
// @Summary Obter cadastro em andamento
// @Description Retorna o rascunho e o indicador de etapas. A etapa atual vem de "step" ou de "path" (ex.: /onboarding/worker/step-3); sem nenhum dos dois, retoma a primeira etapa pendente.
// @Tags Onboarding
// @Produce json
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Param step query int false "Etapa atual"
// @Param path query string false "Caminho da pagina atual"
// @Success 200 {object} models.SuccessResponse{data=services.OnboardingSession}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /v1/onboarding/{role} [get]
func (h *OnboardingHandlers) GetOnboarding(c *gin.Context) {
	user, role, ok := h.begin(c, "get_onboarding")
	if !ok {
		return
	}

	current := 0
	if raw := c.Query("step"); raw != "" {
		current, _ = strconv.Atoi(raw)
	} else if path := c.Query("path"); path != "" {
		seq, err := onboarding.NewSequencer(role)
		if err != nil {
			respondError(c, h.logger, "get_onboarding", err)
			return
		}
		current = seq.StepFromPath(path)
	}

	session, err := h.sessions.Get(c.Request.Context(), user, role, current)
	if err != nil {
		respondError(c, h.logger, "get_onboarding", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(session))
}

// SubmitStep godoc
// @Summary Enviar etapa do cadastro
// @Description Valida os campos da etapa, mescla no rascunho e avanca. Campos de outras etapas ou desconhecidos sao rejeitados.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Param step path int true "Numero da etapa"
// @Param patch body object true "Campos da etapa"
// @Success 200 {object} models.SuccessResponse{data=services.OnboardingSession}
// @Failure 400 {object} models.ErrorResponse "Dados invalidos"
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Etapa ainda nao liberada"
// @Router /v1/onboarding/{role}/steps/{step} [put]
func (h *OnboardingHandlers) SubmitStep(c *gin.Context) {
	user, role, ok := h.begin(c, "submit_onboarding_step")
	if !ok {
		return
	}
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		respondError(c, h.logger, "submit_onboarding_step", models.ErrStepOutOfRange)
		return
	}

	patch, err := onboarding.NewPatch(role)
	if err != nil {
		respondError(c, h.logger, "submit_onboarding_step", err)
		return
	}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(patch); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, msgInvalidBody)
		return
	}

	session, err := h.sessions.SubmitStep(c.Request.Context(), user, role, step, patch)
	if err != nil {
		respondError(c, h.logger, "submit_onboarding_step", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(session))
}

// Back godoc
// @Summary Voltar uma etapa
// @Description Volta para a etapa anterior sem perder dados
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Param request body NavigationRequest true "Etapa atual"
// @Success 200 {object} models.SuccessResponse{data=services.OnboardingSession}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /v1/onboarding/{role}/back [post]
func (h *OnboardingHandlers) Back(c *gin.Context) {
	user, role, ok := h.begin(c, "onboarding_back")
	if !ok {
		return
	}
	var req NavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}
	session, err := h.sessions.Back(c.Request.Context(), user, role, req.Current)
	if err != nil {
		respondError(c, h.logger, "onboarding_back", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(session))
}

// Jump godoc
// @Summary Ir para uma etapa anterior
// @Description Pula direto para uma etapa anterior a atual
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Param request body NavigationRequest true "Etapa atual e destino"
// @Success 200 {object} models.SuccessResponse{data=services.OnboardingSession}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Etapa ainda nao liberada"
// @Router /v1/onboarding/{role}/jump [post]
func (h *OnboardingHandlers) Jump(c *gin.Context) {
	user, role, ok := h.begin(c, "onboarding_jump")
	if !ok {
		return
	}
	var req NavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}
	session, err := h.sessions.Jump(c.Request.Context(), user, role, req.Current, req.Target)
	if err != nil {
		respondError(c, h.logger, "onboarding_jump", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(session))
}

// Reset godoc
// @Summary Recomecar cadastro
// @Description Restaura o rascunho para os valores padrao e volta para a etapa 1
// @Tags Onboarding
// @Produce json
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Success 200 {object} models.SuccessResponse{data=services.OnboardingSession}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /v1/onboarding/{role}/reset [post]
func (h *OnboardingHandlers) Reset(c *gin.Context) {
	user, role, ok := h.begin(c, "onboarding_reset")
	if !ok {
		return
	}
	session, err := h.sessions.Reset(c.Request.Context(), user, role)
	if err != nil {
		respondError(c, h.logger, "onboarding_reset", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(session))
}

// Discard godoc
// @Summary Descartar cadastro
// @Description Apaga o rascunho do cadastro
// @Tags Onboarding
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /v1/onboarding/{role} [delete]
func (h *OnboardingHandlers) Discard(c *gin.Context) {
	user, role, ok := h.begin(c, "onboarding_discard")
	if !ok {
		return
	}
	if err := h.sessions.Discard(c.Request.Context(), user, role); err != nil {
		respondError(c, h.logger, "onboarding_discard", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete godoc
// @Summary Concluir cadastro
// @Description Envia o rascunho completo e cria o perfil. Em caso de falha o rascunho e mantido para nova tentativa.
// @Tags Onboarding
// @Produce json
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Success 201 {object} models.SuccessResponse{data=services.OnboardingResult}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Etapas pendentes, perfil ou documento ja cadastrado"
// @Router /v1/onboarding/{role}/complete [post]
func (h *OnboardingHandlers) Complete(c *gin.Context) {
	user, role, ok := h.begin(c, "complete_onboarding")
	if !ok {
		return
	}
	result, err := h.sessions.Complete(c.Request.Context(), user, role)
	if err != nil {
		respondError(c, h.logger, "complete_onboarding", err)
		return
	}
	c.JSON(http.StatusCreated, models.NewSuccess(result))
}

// UploadAsset godoc
// @Summary Enviar arquivo do cadastro
// @Description Envia o arquivo multipart "file" para um campo do rascunho: photo/document (worker) ou photo/banner (market)
// @Tags Onboarding
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Param slot path string true "photo, document ou banner"
// @Param file formData file true "Arquivo"
// @Success 201 {object} models.SuccessResponse{data=OnboardingUploadResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Envio em andamento"
// @Failure 413 {object} models.ErrorResponse
// @Router /v1/onboarding/{role}/uploads/{slot} [post]
func (h *OnboardingHandlers) UploadAsset(c *gin.Context) {
	ctx := c.Request.Context()
	user, role, ok := h.begin(c, "onboarding_upload")
	if !ok {
		return
	}
	slot := onboarding.Slot(c.Param("slot"))
	policy, err := services.SlotPolicy(role, slot)
	if err != nil {
		badRequest(c, "Campo de arquivo invalido")
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

	release, err := h.uploads.AcquireSlot(ctx, user.ID.Hex(), string(slot))
	if err != nil {
		respondError(c, h.logger, "onboarding_upload", err)
		return
	}
	defer release()

	url, err := saveFile(ctx, h.uploads, policy, file)
	if err != nil {
		respondError(c, h.logger, "onboarding_upload", err)
		return
	}

	session, previous, err := h.sessions.SetAsset(ctx, user, role, slot, url)
	if err != nil {
		if delErr := h.uploads.Delete(ctx, url); delErr != nil {
			h.logger.Warn("failed to delete orphan upload", zap.String("url", url), zap.Error(delErr))
		}
		respondError(c, h.logger, "onboarding_upload", err)
		return
	}
	deleteReplaced(ctx, h.uploads, h.logger, previous, url)

	c.JSON(http.StatusCreated, models.NewSuccess(OnboardingUploadResponse{URL: url, Slot: slot, Session: session}))
}

// RemoveAsset godoc
// @Summary Remover arquivo do cadastro
// @Tags Onboarding
// @Produce json
// @Security BearerAuth
// @Param role path string true "worker ou market"
// @Param slot path string true "photo, document ou banner"
// @Success 200 {object} models.SuccessResponse{data=services.OnboardingSession}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Nenhum arquivo para remover"
// @Router /v1/onboarding/{role}/uploads/{slot} [delete]
func (h *OnboardingHandlers) RemoveAsset(c *gin.Context) {
	ctx := c.Request.Context()
	user, role, ok := h.begin(c, "onboarding_remove_upload")
	if !ok {
		return
	}
	slot := onboarding.Slot(c.Param("slot"))
	if !role.HasSlot(slot) {
		badRequest(c, "Campo de arquivo invalido")
		return
	}

	session, removed, err := h.sessions.ClearAsset(ctx, user, role, slot)
	if err != nil {
		if errors.Is(err, models.ErrNoAssetToRemove) {
			c.JSON(http.StatusNotFound, models.NewError("Nenhum arquivo para remover", nil))
			return
		}
		respondError(c, h.logger, "onboarding_remove_upload", err)
		return
	}
	if err := h.uploads.Delete(ctx, removed); err != nil {
		h.logger.Warn("failed to delete removed upload", zap.String("url", removed), zap.Error(err))
	}
	c.JSON(http.StatusOK, models.NewSuccess(session))
}
