package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trampoja/app-onboarding/internal/config"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/observability"
	"github.com/trampoja/app-onboarding/internal/utils"
	"github.com/trampoja/app-onboarding/internal/validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// WorkerService handles worker profile business logic
type WorkerService struct {
	users   UserRepository
	workers WorkerRepository
	logger  *logging.SafeLogger
	now     func() time.Time
}

// NewWorkerService creates a new worker service instance
func NewWorkerService(users UserRepository, workers WorkerRepository, logger *logging.SafeLogger) *WorkerService {
	return &WorkerService{
		users:   users,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// Global worker service instance
var WorkerServiceInstance *WorkerService

// InitWorkerService initializes the global worker service instance
func InitWorkerService() {
	WorkerServiceInstance = NewWorkerService(
		NewMongoUserRepository(config.MongoDB.Collection(config.AppConfig.UserCollection)),
		NewMongoWorkerRepository(config.MongoDB.Collection(config.AppConfig.WorkerCollection)),
		logging.Logger.Named("worker_service"),
	)
	logging.Logger.Info("worker service initialized successfully")
}

// Create validates req and persists the worker profile of user.
// Checks run in order: existing profile, payload, CPF uniqueness.
func (s *WorkerService) Create(ctx context.Context, user *models.User, req models.CreateWorkerRequest) (worker *models.Worker, err error) {
	ctx, span := utils.TraceBusinessLogic(ctx, "create_worker")
	defer span.End()
	defer func() {
		observability.ProfileSubmissions.WithLabelValues("worker", submissionStatus(err)).Inc()
	}()

	if _, err := s.workers.FindByUserID(ctx, user.ID); err == nil {
		return nil, models.ErrWorkerProfileExists
	} else if !errors.Is(err, models.ErrWorkerNotFound) {
		return nil, err
	}

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	taken, err := s.workers.ExistsByCPF(ctx, req.CPF)
	if err != nil {
		return nil, err
	}
	if taken {
		s.logger.Info("worker CPF already registered", zap.String("cpf", observability.MaskCPF(req.CPF)))
		return nil, models.ErrCPFAlreadyRegistered
	}

	now := s.now()
	dob, _ := utils.ParseBirthDate(req.DateOfBirth, now)
	skills := make([]models.Skill, len(req.Skills))
	for i, skill := range req.Skills {
		skills[i] = models.Skill(skill)
	}
	radius := models.DefaultSearchRadius
	if req.SearchRadius != nil {
		radius = *req.SearchRadius
	}
	period := models.PeriodIntegral
	if req.PeriodPreference != "" {
		period = models.Period(req.PeriodPreference)
	}

	worker = &models.Worker{
		UserID:      user.ID,
		CPF:         req.CPF,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Location: models.Location{
			Address: req.Address,
			City:    req.City,
			State:   req.State,
			ZipCode: req.ZipCode,
			Lat:     *req.Lat,
			Lng:     *req.Lng,
		},
		SearchRadius:     radius,
		MinHourlyRate:    req.MinHourlyRate,
		Skills:           skills,
		PeriodPreference: period,
		PhotoURL:         req.PhotoURL,
		DocumentURL:      req.DocumentURL,
		Level:            1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.workers.Insert(ctx, worker); err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"operation": "insert_worker"})
		return nil, err
	}

	if err := s.users.SetProfileType(ctx, user.ID, models.UserTypeWorker, normalizePhone(req.Phone)); err != nil {
		s.logger.Error("failed to set user type after worker creation", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("worker profile created",
		zap.String("user_id", user.ID.Hex()),
		zap.String("cpf", observability.MaskCPF(req.CPF)))
	return worker, nil
}

// Get returns the worker profile of user
func (s *WorkerService) Get(ctx context.Context, user *models.User) (*models.Worker, error) {
	return s.workers.FindByUserID(ctx, user.ID)
}

// Update applies the non-nil fields of req; the CPF never changes
func (s *WorkerService) Update(ctx context.Context, user *models.User, req models.UpdateWorkerRequest) (*models.Worker, error) {
	ctx, span := utils.TraceBusinessLogic(ctx, "update_worker")
	defer span.End()

	if _, err := s.workers.FindByUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	now := s.now()
	set := bson.M{"updated_at": now}
	setIf(set, "first_name", req.FirstName)
	setIf(set, "last_name", req.LastName)
	setIf(set, "bio", req.Bio)
	setIf(set, "address", req.Address)
	setIf(set, "city", req.City)
	setIf(set, "state", req.State)
	setIf(set, "zip_code", req.ZipCode)
	if req.DateOfBirth != nil {
		dob, _ := utils.ParseBirthDate(*req.DateOfBirth, now)
		set["date_of_birth"] = dob
	}
	if req.Lat != nil {
		set["lat"] = *req.Lat
	}
	if req.Lng != nil {
		set["lng"] = *req.Lng
	}
	if req.SearchRadius != nil {
		set["search_radius"] = *req.SearchRadius
	}
	if req.MinHourlyRate != nil {
		set["min_hourly_rate"] = *req.MinHourlyRate
	}
	if req.Skills != nil {
		set["skills"] = *req.Skills
	}
	if req.PeriodPreference != nil {
		set["period_preference"] = *req.PeriodPreference
	}

	worker, err := s.workers.Update(ctx, user.ID, set)
	if err != nil {
		return nil, err
	}

	if req.Phone != nil {
		if err := s.users.SetPhone(ctx, user.ID, normalizePhone(*req.Phone)); err != nil {
			return nil, fmt.Errorf("failed to update phone: %w", err)
		}
	}
	return worker, nil
}

// SetAssets stores uploaded photo and document URLs; empty values are left unchanged
func (s *WorkerService) SetAssets(ctx context.Context, user *models.User, photoURL, documentURL string) (*models.Worker, error) {
	set := bson.M{"updated_at": s.now()}
	if photoURL != "" {
		set["photo_url"] = photoURL
	}
	if documentURL != "" {
		set["document_url"] = documentURL
	}
	return s.workers.Update(ctx, user.ID, set)
}

func setIf(set bson.M, key string, value *string) {
	if value != nil {
		set[key] = *value
	}
}

// normalizePhone stores phones as DDD + number when they parse
func normalizePhone(phone string) string {
	if normalized, err := utils.NormalizeBrazilianPhone(phone); err == nil {
		return normalized
	}
	return phone
}

func submissionStatus(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	case errors.Is(err, models.ErrCPFAlreadyRegistered), errors.Is(err, models.ErrCNPJAlreadyRegistered),
		errors.Is(err, models.ErrWorkerProfileExists), errors.Is(err, models.ErrMarketProfileExists):
		return "conflict"
	}
	return "error"
}
