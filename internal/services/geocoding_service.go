package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trampoja/app-onboarding/internal/config"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/observability"
	"github.com/trampoja/app-onboarding/internal/utils"
	"github.com/trampoja/app-onboarding/internal/utils/httpclient"
	"go.uber.org/zap"
)

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// GeocodingService resolves addresses to coordinates through the Google
// Geocoding API. Without an API key every lookup reports not found.
type GeocodingService struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	cache    KeyValueStore
	cacheTTL time.Duration
	logger   *logging.SafeLogger
}

// NewGeocodingService creates a new geocoding service instance
func NewGeocodingService(client *http.Client, baseURL, apiKey string, cache KeyValueStore, cacheTTL time.Duration, logger *logging.SafeLogger) *GeocodingService {
	return &GeocodingService{
		client:   client,
		baseURL:  baseURL,
		apiKey:   apiKey,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Global geocoding service instance
var GeocodingServiceInstance *GeocodingService

// InitGeocodingService initializes the global geocoding service instance
func InitGeocodingService() {
	GeocodingServiceInstance = NewGeocodingService(
		httpclient.New(config.AppConfig.ExternalAPITimeout),
		config.AppConfig.GeocodingBaseURL,
		config.AppConfig.GoogleMapsAPIKey,
		config.Redis,
		config.AppConfig.GeocodingCacheTTL,
		logging.Logger.Named("geocoding"),
	)
	if config.AppConfig.GoogleMapsAPIKey == "" {
		logging.Logger.Warn("GOOGLE_MAPS_API_KEY not set, addresses will use default coordinates")
		return
	}
	logging.Logger.Info("geocoding service initialized successfully")
}

// Enabled reports whether an API key is configured
func (s *GeocodingService) Enabled() bool {
	return s != nil && s.apiKey != ""
}

func geocodeCacheKey(address string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(address)))
	return "geocode:" + hex.EncodeToString(sum[:])
}

// Geocode returns the first match for address
func (s *GeocodingService) Geocode(ctx context.Context, address string) (result *models.GeocodeResult, err error) {
	address = strings.Join(strings.Fields(address), " ")
	if address == "" || !s.Enabled() {
		return nil, models.ErrAddressNotFound
	}

	ctx, span := utils.TraceExternalService(ctx, "google_geocoding", "geocode")
	defer span.End()

	key := geocodeCacheKey(address)
	if cached, ok := s.cached(ctx, key); ok {
		observability.CacheHits.WithLabelValues("geocode").Inc()
		return cached, nil
	}

	defer func() {
		observability.ExternalAPIRequests.WithLabelValues("google_geocoding", externalStatus(err)).Inc()
		if err != nil && !errors.Is(err, models.ErrAddressNotFound) {
			utils.RecordErrorInSpan(span, err, nil)
			s.logger.Warn("geocoding failed", zap.Error(err))
		}
	}()

	query := url.Values{}
	query.Set("address", address)
	query.Set("key", s.apiKey)
	query.Set("language", "pt-BR")
	query.Set("region", "BR")

	var resp geocodeResponse
	if err := getJSON(ctx, s.client, s.baseURL+"?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		s.logger.Debug("address not geocoded", zap.String("status", resp.Status))
		return nil, models.ErrAddressNotFound
	}

	first := resp.Results[0]
	result = &models.GeocodeResult{
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}
	s.store(ctx, key, result)
	return result, nil
}

// Locate fills the coordinates of loc when they are missing. Failures
// leave loc unchanged.
func (s *GeocodingService) Locate(ctx context.Context, loc models.Location) models.Location {
	if loc.HasCoordinates() {
		return loc
	}
	result, err := s.Geocode(ctx, loc.GeocodeQuery())
	if err != nil {
		return loc
	}
	loc.Lat, loc.Lng = result.Lat, result.Lng
	return loc
}

func (s *GeocodingService) cached(ctx context.Context, key string) (*models.GeocodeResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	ctx, span := utils.TraceCacheGet(ctx, key)
	defer span.End()

	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("geocode cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var result models.GeocodeResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (s *GeocodingService) store(ctx context.Context, key string, result *models.GeocodeResult) {
	if s.cache == nil {
		return
	}
	ctx, span := utils.TraceCacheSet(ctx, key, s.cacheTTL)
	defer span.End()

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache geocode result", zap.Error(err))
	}
}
