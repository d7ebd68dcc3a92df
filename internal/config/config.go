package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// Redis configuration
	RedisURI      string `json:"redis_uri"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	RedisClusterEnabled bool     `json:"redis_cluster_enabled"`
	RedisClusterAddrs   []string `json:"redis_cluster_addrs"`

	// Collection names
	UserCollection   string `json:"mongo_user_collection"`
	WorkerCollection string `json:"mongo_worker_collection"`
	MarketCollection string `json:"mongo_market_collection"`

	// Onboarding configuration
	OnboardingSessionTTL time.Duration `json:"onboarding_session_ttl"`
	UploadLockTTL        time.Duration `json:"upload_lock_ttl"`

	// Upload configuration
	UploadDir     string `json:"upload_dir"`
	UploadBaseURL string `json:"upload_base_url"`

	// External APIs
	BrasilAPIBaseURL    string        `json:"brasilapi_base_url"`
	CNPJLookupCacheTTL  time.Duration `json:"cnpj_lookup_cache_ttl"`
	CNPJLookupRateLimit int           `json:"cnpj_lookup_rate_limit"`
	GoogleMapsAPIKey    string        `json:"-"`
	GeocodingBaseURL    string        `json:"geocoding_base_url"`
	GeocodingCacheTTL   time.Duration `json:"geocoding_cache_ttl"`
	ExternalAPITimeout  time.Duration `json:"external_api_timeout"`

	// Request rate limiting
	RateLimitRPS   float64 `json:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst"`

	// Tracing configuration
	TracingEnabled     bool    `json:"tracing_enabled"`
	TracingEndpoint    string  `json:"tracing_endpoint"`
	TracingSampleRatio float64 `json:"tracing_sample_ratio"`
	ServiceName        string  `json:"service_name"`
	ServiceVersion     string  `json:"service_version"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisClusterEnabled, err := strconv.ParseBool(getEnvOrDefault("REDIS_CLUSTER_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_CLUSTER_ENABLED: %w", err)
	}
	redisClusterAddrs := splitList(getEnvOrDefault("REDIS_CLUSTER_ADDRS", ""))
	if redisClusterEnabled && len(redisClusterAddrs) == 0 {
		return fmt.Errorf("REDIS_CLUSTER_ADDRS is required when REDIS_CLUSTER_ENABLED=true")
	}

	sessionTTL, err := time.ParseDuration(getEnvOrDefault("ONBOARDING_SESSION_TTL", "24h"))
	if err != nil {
		return fmt.Errorf("invalid ONBOARDING_SESSION_TTL: %w", err)
	}

	uploadLockTTL, err := time.ParseDuration(getEnvOrDefault("UPLOAD_LOCK_TTL", "2m"))
	if err != nil {
		return fmt.Errorf("invalid UPLOAD_LOCK_TTL: %w", err)
	}

	cnpjCacheTTL, err := time.ParseDuration(getEnvOrDefault("CNPJ_LOOKUP_CACHE_TTL", "24h"))
	if err != nil {
		return fmt.Errorf("invalid CNPJ_LOOKUP_CACHE_TTL: %w", err)
	}

	cnpjRateLimit, err := strconv.Atoi(getEnvOrDefault("CNPJ_LOOKUP_RATE_LIMIT", "60"))
	if err != nil || cnpjRateLimit < 1 {
		return fmt.Errorf("invalid CNPJ_LOOKUP_RATE_LIMIT: must be a positive integer")
	}

	geocodingCacheTTL, err := time.ParseDuration(getEnvOrDefault("GEOCODING_CACHE_TTL", "168h"))
	if err != nil {
		return fmt.Errorf("invalid GEOCODING_CACHE_TTL: %w", err)
	}

	externalTimeout, err := time.ParseDuration(getEnvOrDefault("EXTERNAL_API_TIMEOUT", "5s"))
	if err != nil {
		return fmt.Errorf("invalid EXTERNAL_API_TIMEOUT: %w", err)
	}

	rateLimitRPS, err := strconv.ParseFloat(getEnvOrDefault("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateLimitBurst, err := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	tracingEnabled, err := strconv.ParseBool(getEnvOrDefault("TRACING_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("invalid TRACING_ENABLED: %w", err)
	}

	sampleRatio, err := strconv.ParseFloat(getEnvOrDefault("TRACING_SAMPLE_RATIO", "1"), 64)
	if err != nil || sampleRatio < 0 || sampleRatio > 1 {
		return fmt.Errorf("invalid TRACING_SAMPLE_RATIO: must be between 0 and 1")
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// MongoDB configuration
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "trampoja"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		RedisClusterEnabled: redisClusterEnabled,
		RedisClusterAddrs:   redisClusterAddrs,

		// Collection names
		UserCollection:   getEnvOrDefault("MONGODB_USER_COLLECTION", "users"),
		WorkerCollection: getEnvOrDefault("MONGODB_WORKER_COLLECTION", "workers"),
		MarketCollection: getEnvOrDefault("MONGODB_MARKET_COLLECTION", "markets"),

		// Onboarding configuration
		OnboardingSessionTTL: sessionTTL,
		UploadLockTTL:        uploadLockTTL,

		// Upload configuration
		UploadDir:     getEnvOrDefault("UPLOAD_DIR", "./public/uploads"),
		UploadBaseURL: getEnvOrDefault("UPLOAD_BASE_URL", "/uploads"),

		// External APIs
		BrasilAPIBaseURL:    getEnvOrDefault("BRASILAPI_BASE_URL", "https://brasilapi.com.br/api"),
		CNPJLookupCacheTTL:  cnpjCacheTTL,
		CNPJLookupRateLimit: cnpjRateLimit,
		GoogleMapsAPIKey:    getEnvOrDefault("GOOGLE_MAPS_API_KEY", ""),
		GeocodingBaseURL:    getEnvOrDefault("GEOCODING_BASE_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
		GeocodingCacheTTL:   geocodingCacheTTL,
		ExternalAPITimeout:  externalTimeout,

		// Request rate limiting
		RateLimitRPS:   rateLimitRPS,
		RateLimitBurst: rateLimitBurst,

		// Tracing configuration
		TracingEnabled:     tracingEnabled,
		TracingEndpoint:    getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
		TracingSampleRatio: sampleRatio,
		ServiceName:        getEnvOrDefault("SERVICE_NAME", "trampoja-onboarding"),
		ServiceVersion:     getEnvOrDefault("SERVICE_VERSION", "v1.0.0"),
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// splitList parses a comma-separated list, dropping empty entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
