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

// MarketService handles market profile business logic
type MarketService struct {
	users   UserRepository
	markets MarketRepository
	logger  *logging.SafeLogger
	now     func() time.Time
}

// NewMarketService creates a new market service instance
func NewMarketService(users UserRepository, markets MarketRepository, logger *logging.SafeLogger) *MarketService {
	return &MarketService{
		users:   users,
		markets: markets,
		logger:  logger,
		now:     time.Now,
	}
}

// Global market service instance
var MarketServiceInstance *MarketService

// InitMarketService initializes the global market service instance
func InitMarketService() {
	MarketServiceInstance = NewMarketService(
		NewMongoUserRepository(config.MongoDB.Collection(config.AppConfig.UserCollection)),
		NewMongoMarketRepository(config.MongoDB.Collection(config.AppConfig.MarketCollection)),
		logging.Logger.Named("market_service"),
	)
	logging.Logger.Info("market service initialized successfully")
}

// Create validates req and persists the market profile of user
func (s *MarketService) Create(ctx context.Context, user *models.User, req models.CreateMarketRequest) (market *models.Market, err error) {
	ctx, span := utils.TraceBusinessLogic(ctx, "create_market")
	defer span.End()
	defer func() {
		observability.ProfileSubmissions.WithLabelValues("market", submissionStatus(err)).Inc()
	}()

	if _, err := s.markets.FindByUserID(ctx, user.ID); err == nil {
		return nil, models.ErrMarketProfileExists
	} else if !errors.Is(err, models.ErrMarketNotFound) {
		return nil, err
	}

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	taken, err := s.markets.ExistsByCNPJ(ctx, req.CNPJ)
	if err != nil {
		return nil, err
	}
	if taken {
		s.logger.Info("market CNPJ already registered", zap.String("cnpj", observability.MaskCNPJ(req.CNPJ)))
		return nil, models.ErrCNPJAlreadyRegistered
	}

	now := s.now()
	phone := ""
	if req.Phone != "" {
		phone = normalizePhone(req.Phone)
	}
	market = &models.Market{
		UserID:      user.ID,
		CNPJ:        req.CNPJ,
		TradeName:   req.TradeName,
		LegalName:   req.LegalName,
		Description: req.Description,
		Location: models.Location{
			Address: req.Address,
			City:    req.City,
			State:   req.State,
			ZipCode: req.ZipCode,
			Lat:     *req.Lat,
			Lng:     *req.Lng,
		},
		Phone:           phone,
		Email:           req.Email,
		ResponsibleName: req.ResponsibleName,
		PhotoURL:        req.PhotoURL,
		BannerURL:       req.BannerURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.markets.Insert(ctx, market); err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"operation": "insert_market"})
		return nil, err
	}

	if err := s.users.SetProfileType(ctx, user.ID, models.UserTypeMarket, phone); err != nil {
		s.logger.Error("failed to set user type after market creation", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("market profile created",
		zap.String("user_id", user.ID.Hex()),
		zap.String("cnpj", observability.MaskCNPJ(req.CNPJ)))
	return market, nil
}

// Get returns the market profile of user
func (s *MarketService) Get(ctx context.Context, user *models.User) (*models.Market, error) {
	return s.markets.FindByUserID(ctx, user.ID)
}

// Update applies the non-nil fields of req; the CNPJ never changes
func (s *MarketService) Update(ctx context.Context, user *models.User, req models.UpdateMarketRequest) (*models.Market, error) {
	ctx, span := utils.TraceBusinessLogic(ctx, "update_market")
	defer span.End()

	if _, err := s.markets.FindByUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": s.now()}
	setIf(set, "trade_name", req.TradeName)
	setIf(set, "legal_name", req.LegalName)
	setIf(set, "description", req.Description)
	setIf(set, "address", req.Address)
	setIf(set, "city", req.City)
	setIf(set, "state", req.State)
	setIf(set, "zip_code", req.ZipCode)
	setIf(set, "email", req.Email)
	setIf(set, "responsible_name", req.ResponsibleName)
	if req.Phone != nil {
		set["phone"] = normalizePhone(*req.Phone)
	}
	if req.Lat != nil {
		set["lat"] = *req.Lat
	}
	if req.Lng != nil {
		set["lng"] = *req.Lng
	}

	return s.markets.Update(ctx, user.ID, set)
}

// SetPhoto stores url in field and returns the market with the URL it replaced
func (s *MarketService) SetPhoto(ctx context.Context, user *models.User, field models.MarketPhotoField, url string) (*models.Market, string, error) {
	if !field.IsValid() {
		return nil, "", models.ErrInvalidAssetSlot
	}
	current, err := s.markets.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	market, err := s.markets.Update(ctx, user.ID, bson.M{photoColumn(field): url, "updated_at": s.now()})
	if err != nil {
		return nil, "", err
	}
	return market, photoURL(current, field), nil
}

// ClearPhoto empties field and returns the market with the URL that was removed
func (s *MarketService) ClearPhoto(ctx context.Context, user *models.User, field models.MarketPhotoField) (*models.Market, string, error) {
	if !field.IsValid() {
		return nil, "", models.ErrInvalidAssetSlot
	}
	current, err := s.markets.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	old := photoURL(current, field)
	if old == "" {
		return nil, "", models.ErrNoAssetToRemove
	}

	market, err := s.markets.Update(ctx, user.ID, bson.M{photoColumn(field): "", "updated_at": s.now()})
	if err != nil {
		return nil, "", err
	}
	return market, old, nil
}

func photoColumn(field models.MarketPhotoField) string {
	if field == models.MarketPhotoFieldBanner {
		return "banner_url"
	}
	return "photo_url"
}

func photoURL(m *models.Market, field models.MarketPhotoField) string {
	if field == models.MarketPhotoFieldBanner {
		return m.BannerURL
	}
	return m.PhotoURL
}
