package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/middleware"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/services"
	"github.com/trampoja/app-onboarding/internal/utils"
	"go.uber.org/zap"
)

// currentUser resolves the account behind the request's JWT, registering
// it on first contact
func currentUser(c *gin.Context, users *services.UserService) (*models.User, error) {
	claims, err := middleware.ClaimsFromContext(c)
	if err != nil {
		return nil, err
	}
	ctx := c.Request.Context()
	user, err := users.Current(ctx, claims)
	if errors.Is(err, models.ErrUserNotFound) {
		return users.Register(ctx, claims)
	}
	return user, err
}

// formFile returns the named multipart file, or nil when it was not sent
func formFile(c *gin.Context, name string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	return fh, err
}

// saveFile hands fh to the upload gateway under policy
func saveFile(ctx context.Context, uploads *services.UploadService, policy services.UploadPolicy, fh *multipart.FileHeader) (string, error) {
	ctx, _, done := utils.TraceOperation(ctx, "upload."+policy.Kind, map[string]interface{}{
		"upload.folder": policy.Folder,
		"upload.size":   fh.Size,
	})
	defer done()

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return uploads.Save(ctx, policy, services.FileUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     f,
	})
}

// deleteReplaced removes the previous file of a slot that received a new one.
// Failures are logged only.
func deleteReplaced(ctx context.Context, uploads *services.UploadService, logger *logging.SafeLogger, previous, next string) {
	if previous == "" || next == "" || previous == next {
		return
	}
	if err := uploads.Delete(ctx, previous); err != nil {
		logger.Warn("failed to delete replaced upload", zap.String("url", previous), zap.Error(err))
	}
}
