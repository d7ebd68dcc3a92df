package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/onboarding"
	"github.com/trampoja/app-onboarding/internal/services"
	"go.uber.org/zap"
)

// WorkerHandlers handles worker profile operations
type WorkerHandlers struct {
	logger  *logging.SafeLogger
	users   *services.UserService
	workers *services.WorkerService
	uploads *services.UploadService
}

// NewWorkerHandlers creates a new worker handlers instance
func NewWorkerHandlers(logger *logging.SafeLogger, users *services.UserService, workers *services.WorkerService, uploads *services.UploadService) *WorkerHandlers {
	return &WorkerHandlers{
		logger:  logger,
		users:   users,
		workers: workers,
		uploads: uploads,
	}
}

// CreateWorker godoc
// @Summary Cadastrar trabalhador
// @Description Cria o perfil de trabalhador do usuario autenticado. CPF e CEP devem conter apenas digitos.
// @Tags Workers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param worker body models.CreateWorkerRequest true "Dados do trabalhador"
// @Success 201 {object} models.SuccessResponse{data=models.Worker}
// @Failure 400 {object} models.ErrorResponse "Dados invalidos ou CPF invalido"
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Perfil ja existe ou CPF ja cadastrado"
// @Failure 500 {object} models.ErrorResponse
// @Router /v1/workers [post]
func (h *WorkerHandlers) CreateWorker(c *gin.Context) {
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, "create_worker", err)
		return
	}

	var req models.CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	worker, err := h.workers.Create(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, h.logger, "create_worker", err)
		return
	}
	c.JSON(http.StatusCreated, models.NewSuccess(worker))
}

// GetMyWorker godoc
// @Summary Obter meu perfil de trabalhador
// @Tags Workers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SuccessResponse{data=models.Worker}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /v1/workers/me [get]
func (h *WorkerHandlers) GetMyWorker(c *gin.Context) {
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, "get_worker", err)
		return
	}
	worker, err := h.workers.Get(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, "get_worker", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(worker))
}

// UpdateMyWorker godoc
// @Summary Atualizar meu perfil de trabalhador
// @Description Atualizacao parcial; o CPF nao pode ser alterado
// @Tags Workers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param worker body models.UpdateWorkerRequest true "Campos a atualizar"
// @Success 200 {object} models.SuccessResponse{data=models.Worker}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /v1/workers/me [patch]
func (h *WorkerHandlers) UpdateMyWorker(c *gin.Context) {
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, "update_worker", err)
		return
	}

	var req models.UpdateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	worker, err := h.workers.Update(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, h.logger, "update_worker", err)
		return
	}
	c.JSON(http.StatusOK, models.NewSuccess(worker))
}

// UploadDocuments godoc
// @Summary Enviar foto e documento do trabalhador
// @Description Recebe os arquivos multipart "photo" (JPEG/PNG, ate 5MB) e/ou "document" (JPEG/PNG/PDF, ate 10MB)
// @Tags Workers
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param photo formData file false "Foto de perfil"
// @Param document formData file false "Documento de identidade"
// @Success 200 {object} models.SuccessResponse{data=models.WorkerAssetsResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Envio em andamento"
// @Failure 413 {object} models.ErrorResponse
// @Router /v1/workers/me/documents [post]
func (h *WorkerHandlers) UploadDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := currentUser(c, h.users)
	if err != nil {
		respondError(c, h.logger, "upload_worker_documents", err)
		return
	}
	current, err := h.workers.Get(ctx, user)
	if err != nil {
		respondError(c, h.logger, "upload_worker_documents", err)
		return
	}

	photo, err := formFile(c, "photo")
	if err != nil {
		badRequest(c, msgInvalidBody)
		return
	}
	document, err := formFile(c, "document")
	if err != nil {
		badRequest(c, msgInvalidBody)
		return
	}
	if photo == nil && document == nil {
		badRequest(c, "Envie pelo menos um arquivo (photo ou document)")
		return
	}

	owner := user.ID.Hex()
	var stored []string
	discard := func() {
		for _, url := range stored {
			if err := h.uploads.Delete(ctx, url); err != nil {
				h.logger.Warn("failed to delete orphan upload", zap.String("url", url), zap.Error(err))
			}
		}
	}

	var resp models.WorkerAssetsResponse
	for _, part := range []struct {
		slot   onboarding.Slot
		file   *multipart.FileHeader
		policy services.UploadPolicy
		url    *string
	}{
		{onboarding.SlotPhoto, photo, services.WorkerPhotoPolicy, &resp.PhotoURL},
		{onboarding.SlotDocument, document, services.WorkerDocumentPolicy, &resp.DocumentURL},
	} {
		if part.file == nil {
			continue
		}
		release, err := h.uploads.AcquireSlot(ctx, owner, string(part.slot))
		if err != nil {
			discard()
			respondError(c, h.logger, "upload_worker_documents", err)
			return
		}
		defer release()

		url, err := saveFile(ctx, h.uploads, part.policy, part.file)
		if err != nil {
			discard()
			respondError(c, h.logger, "upload_worker_documents", err)
			return
		}
		stored = append(stored, url)
		*part.url = url
	}

	if _, err := h.workers.SetAssets(ctx, user, resp.PhotoURL, resp.DocumentURL); err != nil {
		discard()
		respondError(c, h.logger, "upload_worker_documents", err)
		return
	}

	deleteReplaced(ctx, h.uploads, h.logger, current.PhotoURL, resp.PhotoURL)
	deleteReplaced(ctx, h.uploads, h.logger, current.DocumentURL, resp.DocumentURL)

	h.logger.Info("worker documents uploaded",
		zap.String("user_id", owner),
		zap.Bool("photo", resp.PhotoURL != ""),
		zap.Bool("document", resp.DocumentURL != ""))
	c.JSON(http.StatusOK, models.NewSuccess(resp))
}
