package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
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
	"golang.org/x/time/rate"
)

// brasilAPICompany is the subset of the BrasilAPI CNPJ payload we read
type brasilAPICompany struct {
	CNPJ         string `json:"cnpj"`
	RazaoSocial  string `json:"razao_social"`
	NomeFantasia string `json:"nome_fantasia"`
	Logradouro   string `json:"logradouro"`
	Numero       string `json:"numero"`
	Complemento  string `json:"complemento"`
	Bairro       string `json:"bairro"`
	Municipio    string `json:"municipio"`
	UF           string `json:"uf"`
	CEP          string `json:"cep"`
}

func (c brasilAPICompany) result(cnpj string) *models.CNPJLookupResult {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.Logradouro, c.Numero, c.Complemento, c.Bairro} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	tradeName := strings.TrimSpace(c.NomeFantasia)
	if tradeName == "" {
		tradeName = strings.TrimSpace(c.RazaoSocial)
	}
	return &models.CNPJLookupResult{
		CNPJ:      cnpj,
		LegalName: strings.TrimSpace(c.RazaoSocial),
		TradeName: tradeName,
		Address:   strings.Join(parts, ", "),
		City:      strings.TrimSpace(c.Municipio),
		State:     strings.ToUpper(strings.TrimSpace(c.UF)),
		ZipCode:   utils.OnlyDigits(c.CEP),
	}
}

// CNPJLookupService resolves company data from BrasilAPI with a Redis cache
type CNPJLookupService struct {
	client   *http.Client
	baseURL  string
	cache    KeyValueStore
	cacheTTL time.Duration
	limiter  *rate.Limiter
	logger   *logging.SafeLogger
}

// NewCNPJLookupService creates a lookup service allowing perMinute upstream calls
func NewCNPJLookupService(client *http.Client, baseURL string, cache KeyValueStore, cacheTTL time.Duration, perMinute int, logger *logging.SafeLogger) *CNPJLookupService {
	if perMinute < 1 {
		perMinute = 1
	}
	return &CNPJLookupService{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		cache:    cache,
		cacheTTL: cacheTTL,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		logger:   logger,
	}
}

// Global CNPJ lookup service instance
var CNPJLookupServiceInstance *CNPJLookupService

// InitCNPJLookupService initializes the global CNPJ lookup service instance
func InitCNPJLookupService() {
	CNPJLookupServiceInstance = NewCNPJLookupService(
		httpclient.New(config.AppConfig.ExternalAPITimeout),
		config.AppConfig.BrasilAPIBaseURL,
		config.Redis,
		config.AppConfig.CNPJLookupCacheTTL,
		config.AppConfig.CNPJLookupRateLimit,
		logging.Logger.Named("cnpj_lookup"),
	)
	logging.Logger.Info("CNPJ lookup service initialized",
		zap.String("base_url", config.AppConfig.BrasilAPIBaseURL),
		zap.Int("max_requests_per_minute", config.AppConfig.CNPJLookupRateLimit))
}

func cnpjCacheKey(digits string) string {
	return "cnpj:lookup:" + digits
}

// Lookup returns the company registered under cnpj. The CNPJ checksum is
// verified before any upstream call.
func (s *CNPJLookupService) Lookup(ctx context.Context, cnpj string) (result *models.CNPJLookupResult, err error) {
	ctx, span := utils.TraceExternalService(ctx, "brasilapi", "cnpj_lookup")
	defer span.End()

	digits := utils.CleanCNPJ(cnpj)
	if !utils.ValidateCNPJ(digits) {
		return nil, models.ErrInvalidCNPJ
	}

	if cached, ok := s.cached(ctx, digits); ok {
		observability.CacheHits.WithLabelValues("cnpj_lookup").Inc()
		return cached, nil
	}

	defer func() {
		observability.ExternalAPIRequests.WithLabelValues("brasilapi", externalStatus(err)).Inc()
		if err != nil {
			utils.RecordErrorInSpan(span, err, map[string]interface{}{"cnpj": observability.MaskCNPJ(digits)})
		}
	}()

	if !s.limiter.Allow() {
		s.logger.Warn("CNPJ lookup rate limited", zap.String("cnpj", observability.MaskCNPJ(digits)))
		return nil, models.ErrRateLimited
	}

	var company brasilAPICompany
	if err := getJSON(ctx, s.client, s.baseURL+"/cnpj/v1/"+digits, &company); err != nil {
		var status *statusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			return nil, models.ErrCNPJNotFound
		}
		s.logger.Warn("CNPJ lookup failed",
			zap.String("cnpj", observability.MaskCNPJ(digits)),
			zap.Error(err))
		return nil, err
	}

	result = company.result(digits)
	s.store(ctx, digits, result)
	return result, nil
}

func (s *CNPJLookupService) cached(ctx context.Context, digits string) (*models.CNPJLookupResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	ctx, span := utils.TraceCacheGet(ctx, cnpjCacheKey(digits))
	defer span.End()

	raw, err := s.cache.Get(ctx, cnpjCacheKey(digits)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("CNPJ cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var result models.CNPJLookupResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.logger.Warn("discarding corrupt CNPJ cache entry", zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (s *CNPJLookupService) store(ctx context.Context, digits string, result *models.CNPJLookupResult) {
	if s.cache == nil {
		return
	}
	ctx, span := utils.TraceCacheSet(ctx, cnpjCacheKey(digits), s.cacheTTL)
	defer span.End()

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cnpjCacheKey(digits), data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache CNPJ lookup", zap.Error(fmt.Errorf("set %s: %w", cnpjCacheKey(digits), err)))
	}
}
