package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "trampoja_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trampoja_active_connections",
			Help: "Number of active connections",
		},
	)

	// CacheHits tracks cache hits/misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trampoja_cache_hits_total",
			Help: "Number of cache hits",
		},
		[]string{"operation"},
	)

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trampoja_database_operations_total",
			Help: "Number of database operations",
		},
		[]string{"operation", "status"},
	)

	// DocumentValidations tracks CPF/CNPJ checksum validations
	DocumentValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trampoja_document_validations_total",
			Help: "Number of CPF/CNPJ validations by outcome",
		},
		[]string{"kind", "result"},
	)

	// OnboardingStepTransitions tracks step sequencer transitions
	OnboardingStepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trampoja_onboarding_step_transitions_total",
			Help: "Number of onboarding step transitions",
		},
		[]string{"role", "action", "step"},
	)

	// Uploads tracks upload gateway outcomes
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trampoja_uploads_total",
			Help: "Number of uploads by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	// ProfileSubmissions tracks profile submission outcomes
	ProfileSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trampoja_profile_submissions_total",
			Help: "Number of worker/market profile submissions by outcome",
		},
		[]string{"role", "status"},
	)

	// ExternalAPIRequests tracks calls to BrasilAPI and geocoding
	ExternalAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trampoja_external_api_requests_total",
			Help: "Number of external API requests",
		},
		[]string{"api", "status"},
	)
)
