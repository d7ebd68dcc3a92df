package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/trampoja/app-onboarding/internal/config"
	"github.com/trampoja/app-onboarding/internal/handlers"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/middleware"
	"github.com/trampoja/app-onboarding/internal/observability"
	"github.com/trampoja/app-onboarding/internal/services"
	"github.com/trampoja/app-onboarding/internal/utils"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/trampoja/app-onboarding/docs"
)

// @title           TrampoJa Onboarding API
// @version         1.0
// @description     Cadastro de trabalhadores e mercados: validacao de CPF/CNPJ, cadastro em etapas com rascunho salvo, envio de fotos e documentos e criacao dos perfis.

// @contact.name   TrampoJa
// @contact.email  dev@trampoja.com.br

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Onboarding
// @tag.description Cadastro em etapas

// @tag.name Workers
// @tag.description Perfil de trabalhador

// @tag.name Markets
// @tag.description Perfil de mercado

// @tag.name Documents
// @tag.description Validacao e consulta de documentos

// @tag.name Health
// @tag.description Health check operations

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logging.Logger.Sync()

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	if err := config.InitMongoDB(); err != nil {
		logging.Logger.Fatal("failed to initialize MongoDB", zap.Error(err))
	}
	config.InitRedis()

	if err := os.MkdirAll(config.AppConfig.UploadDir, 0o755); err != nil {
		logging.Logger.Fatal("failed to create upload directory",
			zap.String("dir", config.AppConfig.UploadDir),
			zap.Error(err))
	}

	// Services, in dependency order
	services.InitUserService()
	services.InitWorkerService()
	services.InitMarketService()
	services.InitUploadService()
	services.InitCNPJLookupService()
	services.InitGeocodingService()
	services.InitOnboardingSessionService()

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	limiters := middleware.NewLimiterStore(config.AppConfig.RateLimitRPS, config.AppConfig.RateLimitBurst, 10*time.Minute)
	limiters.StartJanitor(ctx, time.Minute)

	// Create router with middleware
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		middleware.RequestTracing(),
		cors.New(corsConfig()),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Uploaded files
	router.Static(config.AppConfig.UploadBaseURL, config.AppConfig.UploadDir)

	logger := logging.Logger
	set := &handlers.Set{
		Health: handlers.NewHealthHandlers(logger.Named("health"), map[string]handlers.HealthCheck{
			"mongodb": func(ctx context.Context) error {
				return config.MongoDB.Client().Ping(ctx, readpref.Primary())
			},
			"redis": func(ctx context.Context) error {
				return config.Redis.Ping(ctx).Err()
			},
		}),
		Users:      handlers.NewUserHandlers(logger.Named("users"), services.UserServiceInstance),
		Workers:    handlers.NewWorkerHandlers(logger.Named("workers"), services.UserServiceInstance, services.WorkerServiceInstance, services.UploadServiceInstance),
		Markets:    handlers.NewMarketHandlers(logger.Named("markets"), services.UserServiceInstance, services.MarketServiceInstance, services.UploadServiceInstance),
		Documents:  handlers.NewDocumentHandlers(logger.Named("documents"), utils.NewDocumentValidator(), services.CNPJLookupServiceInstance),
		Onboarding: handlers.NewOnboardingHandlers(logger.Named("onboarding"), services.UserServiceInstance, services.OnboardingSessionServiceInstance, services.UploadServiceInstance),
	}
	set.Register(router.Group("", middleware.RateLimit(limiters)), middleware.AuthMiddleware())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logging.Logger.Info("shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	if err := config.MongoDB.Client().Disconnect(shutdownCtx); err != nil {
		logging.Logger.Warn("failed to disconnect from MongoDB", zap.Error(err))
	}

	logging.Logger.Info("server exited gracefully")
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	cfg.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	return cfg
}
