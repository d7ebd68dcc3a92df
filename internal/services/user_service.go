package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/trampoja/app-onboarding/internal/config"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/utils"
	"go.uber.org/zap"
)

// UserService resolves the account behind the authenticated subject
type UserService struct {
	users   UserRepository
	workers WorkerRepository
	markets MarketRepository
	logger  *logging.SafeLogger
}

// NewUserService creates a new user service instance
func NewUserService(users UserRepository, workers WorkerRepository, markets MarketRepository, logger *logging.SafeLogger) *UserService {
	return &UserService{
		users:   users,
		workers: workers,
		markets: markets,
		logger:  logger,
	}
}

// Global user service instance
var UserServiceInstance *UserService

// InitUserService initializes the global user service instance
func InitUserService() {
	UserServiceInstance = NewUserService(
		NewMongoUserRepository(config.MongoDB.Collection(config.AppConfig.UserCollection)),
		NewMongoWorkerRepository(config.MongoDB.Collection(config.AppConfig.WorkerCollection)),
		NewMongoMarketRepository(config.MongoDB.Collection(config.AppConfig.MarketCollection)),
		logging.Logger.Named("user_service"),
	)
	logging.Logger.Info("user service initialized successfully")
}

// Register creates the user on first sign-in, or returns the existing one
func (s *UserService) Register(ctx context.Context, claims *models.JWTClaims) (*models.User, error) {
	if claims == nil || claims.SUB == "" {
		return nil, models.ErrUnauthorized
	}

	ctx, span := utils.TraceBusinessLogic(ctx, "register_user")
	defer span.End()

	user, err := s.users.UpsertBySubject(ctx, claims.SUB, claims.Email)
	if err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"operation": "upsert_user"})
		s.logger.Error("failed to register user", zap.String("subject", claims.SUB), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// Current returns the registered user for claims
func (s *UserService) Current(ctx context.Context, claims *models.JWTClaims) (*models.User, error) {
	if claims == nil || claims.SUB == "" {
		return nil, models.ErrUnauthorized
	}
	return s.users.FindBySubject(ctx, claims.SUB)
}

// Me registers the user if needed and attaches the role profile
func (s *UserService) Me(ctx context.Context, claims *models.JWTClaims) (*models.MeResponse, error) {
	user, err := s.Register(ctx, claims)
	if err != nil {
		return nil, err
	}

	resp := &models.MeResponse{User: *user}
	switch user.Type {
	case models.UserTypeWorker:
		worker, err := s.workers.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, models.ErrWorkerNotFound) {
			return nil, fmt.Errorf("failed to load worker profile: %w", err)
		}
		resp.Worker = worker
	case models.UserTypeMarket:
		market, err := s.markets.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, models.ErrMarketNotFound) {
			return nil, fmt.Errorf("failed to load market profile: %w", err)
		}
		resp.Market = market
	}
	return resp, nil
}
