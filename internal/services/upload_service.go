package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/trampoja/app-onboarding/internal/config"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/observability"
	"github.com/trampoja/app-onboarding/internal/onboarding"
	"github.com/trampoja/app-onboarding/internal/utils"
	"go.uber.org/zap"
)

const (
	maxPhotoSize    = 5 << 20
	maxDocumentSize = 10 << 20
)

// UploadPolicy describes what an upload slot accepts and where it is stored
type UploadPolicy struct {
	Kind         string
	AllowedTypes []string
	MaxSize      int64
	Folder       string
}

var (
	WorkerPhotoPolicy = UploadPolicy{
		Kind:         "photo",
		AllowedTypes: []string{"image/jpeg", "image/png"},
		MaxSize:      maxPhotoSize,
		Folder:       "workers/photos",
	}
	WorkerDocumentPolicy = UploadPolicy{
		Kind:         "document",
		AllowedTypes: []string{"image/jpeg", "image/png", "application/pdf"},
		MaxSize:      maxDocumentSize,
		Folder:       "workers/documents",
	}
	MarketPhotoPolicy = UploadPolicy{
		Kind:         "photo",
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
		MaxSize:      maxPhotoSize,
		Folder:       "markets",
	}
)

// UploadError is an upload rejection with the message shown to the user
type UploadError struct {
	Err     error
	Message string
}

func (e *UploadError) Error() string { return e.Err.Error() + ": " + e.Message }

func (e *UploadError) Unwrap() error { return e.Err }

func (p UploadPolicy) typeError() *UploadError {
	names := make([]string, len(p.AllowedTypes))
	for i, t := range p.AllowedTypes {
		names[i] = t[strings.Index(t, "/")+1:]
	}
	return &UploadError{Err: models.ErrUploadTypeNotAllowed, Message: "Tipo de arquivo invalido. Permitido: " + strings.Join(names, ", ")}
}

func (p UploadPolicy) sizeError() *UploadError {
	return &UploadError{Err: models.ErrUploadTooLarge, Message: fmt.Sprintf("Arquivo muito grande. Maximo: %dMB", p.MaxSize>>20)}
}

func (p UploadPolicy) allows(contentType string) bool {
	for _, t := range p.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// FileUpload is one file received from a multipart form
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadService validates uploaded files and stores them on local disk
type UploadService struct {
	dir     string
	baseURL string
	locks   KeyValueStore
	lockTTL time.Duration
	logger  *logging.SafeLogger
}

// NewUploadService creates an upload service writing below dir and serving from baseURL
func NewUploadService(dir, baseURL string, locks KeyValueStore, lockTTL time.Duration, logger *logging.SafeLogger) *UploadService {
	return &UploadService{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		locks:   locks,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// Global upload service instance
var UploadServiceInstance *UploadService

// InitUploadService initializes the global upload service instance
func InitUploadService() {
	UploadServiceInstance = NewUploadService(
		config.AppConfig.UploadDir,
		config.AppConfig.UploadBaseURL,
		config.Redis,
		config.AppConfig.UploadLockTTL,
		logging.Logger.Named("upload_service"),
	)
	logging.Logger.Info("upload service initialized successfully",
		zap.String("dir", config.AppConfig.UploadDir))
}

// Save checks the declared and sniffed content type and the size, then
// writes the file under a random name and returns its public URL
func (s *UploadService) Save(ctx context.Context, policy UploadPolicy, file FileUpload) (url string, err error) {
	_, span := utils.TraceBusinessLogic(ctx, "save_upload")
	defer span.End()
	defer func() {
		status := "stored"
		if err != nil {
			status = "rejected"
		}
		observability.Uploads.WithLabelValues(policy.Kind, status).Inc()
	}()

	if file.Content == nil || file.Size == 0 {
		return "", &UploadError{Err: models.ErrUploadEmpty, Message: "Nenhum arquivo enviado"}
	}
	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0]))
	if !policy.allows(declared) {
		return "", policy.typeError()
	}
	if file.Size > policy.MaxSize {
		return "", policy.sizeError()
	}

	data, err := io.ReadAll(io.LimitReader(file.Content, policy.MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", &UploadError{Err: models.ErrUploadEmpty, Message: "Nenhum arquivo enviado"}
	}
	if int64(len(data)) > policy.MaxSize {
		return "", policy.sizeError()
	}

	detected := mimetype.Detect(data)
	if !detected.Is(declared) {
		s.logger.Warn("upload content does not match declared type",
			zap.String("declared", declared),
			zap.String("detected", detected.String()))
		return "", policy.typeError()
	}

	name := utils.GenerateUUID() + detected.Extension()
	folder := filepath.Join(s.dir, filepath.FromSlash(policy.Folder))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}
	if err := os.WriteFile(filepath.Join(folder, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	url = s.baseURL + "/" + policy.Folder + "/" + name
	s.logger.Info("upload stored",
		zap.String("kind", policy.Kind),
		zap.String("url", url),
		zap.Int("bytes", len(data)))
	return url, nil
}

// Delete removes the file behind url. URLs outside the upload area and
// files that are already gone are ignored.
func (s *UploadService) Delete(ctx context.Context, url string) error {
	rel, ok := s.relativePath(url)
	if !ok {
		s.logger.Debug("skipping delete of foreign URL", zap.String("url", url))
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

func (s *UploadService) relativePath(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	rel := path.Clean(strings.TrimPrefix(url, prefix))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", false
	}
	return rel, true
}

// AcquireSlot guards a slot against concurrent uploads by the same owner.
// The returned func releases the lock.
func (s *UploadService) AcquireSlot(ctx context.Context, owner, slot string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}
	key := fmt.Sprintf("upload-lock:%s:%s", owner, slot)
	acquired, err := s.locks.SetNX(ctx, key, "1", s.lockTTL).Result()
	if err != nil {
		// Redis down: let the upload proceed without the guard
		s.logger.Warn("upload lock unavailable", zap.String("key", key), zap.Error(err))
		return func() {}, nil
	}
	if !acquired {
		return nil, models.ErrUploadInProgress
	}
	return func() {
		if err := s.locks.Del(context.Background(), key).Err(); err != nil {
			s.logger.Warn("failed to release upload lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// SlotPolicy returns the policy of an onboarding asset slot
func SlotPolicy(role onboarding.Role, slot onboarding.Slot) (UploadPolicy, error) {
	switch {
	case role == onboarding.RoleWorker && slot == onboarding.SlotPhoto:
		return WorkerPhotoPolicy, nil
	case role == onboarding.RoleWorker && slot == onboarding.SlotDocument:
		return WorkerDocumentPolicy, nil
	case role == onboarding.RoleMarket && (slot == onboarding.SlotPhoto || slot == onboarding.SlotBanner):
		return MarketPhotoPolicy, nil
	}
	return UploadPolicy{}, models.ErrInvalidAssetSlot
}
