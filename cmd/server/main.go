package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	clientapp "github.com/crm/backend/internal/application/client"
	timelineapp "github.com/crm/backend/internal/application/timeline"
	verificationapp "github.com/crm/backend/internal/application/verification"
	"github.com/crm/backend/internal/infrastructure/audit"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/export"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/portal"
	"github.com/crm/backend/internal/infrastructure/registry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	contactRepo := persistence.NewGormContactRepository(db.DB)
	contactHistoryRepo := persistence.NewGormContactHistoryRepository(db.DB)
	vatRecordRepo := persistence.NewGormVATRecordRepository(db.DB)
	whitelistRecordRepo := persistence.NewGormWhitelistRecordRepository(db.DB)
	eventRepo := persistence.NewGormEventRepository(db.DB)

	// Verification cache and registry rate limiter, Redis-backed when available
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	resultCache, err := cacheFactory.CreateResultCache()
	if err != nil {
		log.Fatal("Failed to create verification cache", zap.Error(err))
	}
	registryLimiter, err := cacheFactory.CreateRateLimiter(cfg.VAT.RateLimitRequests, cfg.VAT.RateLimitWindow)
	if err != nil {
		log.Fatal("Failed to create registry rate limiter", zap.Error(err))
	}

	// External registry clients
	viesClient := registry.NewVIESClient(cfg.VAT)
	whitelistClient := registry.NewWhitelistClient(cfg.Whitelist)

	// Supporting infrastructure
	auditLogger := audit.NewZapAuditLogger(log)
	invitationSender := notification.NewLogSender(log)
	portalProvisioner := portal.NewHTTPProvisioner(cfg.Portal)
	timelineExporter := export.NewHTTPExporter(cfg.Export)

	// Initialize application services
	contactService := clientapp.NewContactService(
		contactRepo,
		contactHistoryRepo,
		eventRepo,
		portalProvisioner,
		invitationSender,
		auditLogger,
		log,
	)
	vatService := verificationapp.NewVATService(
		vatRecordRepo,
		viesClient,
		resultCache,
		registryLimiter,
		eventRepo,
		auditLogger,
		log,
		verificationapp.VATServiceConfig{
			CacheTTL:       cfg.VAT.CacheTTL,
			FallbackWindow: cfg.VAT.FallbackWindow,
			RequestTimeout: cfg.VAT.RequestTimeout,
			RateLimitKey:   "vat:registry",
			ChunkSize:      cfg.VAT.BatchChunkSize,
			ChunkPause:     cfg.VAT.BatchChunkPause,
		},
	)
	whitelistService := verificationapp.NewWhitelistService(
		whitelistRecordRepo,
		whitelistClient,
		resultCache,
		eventRepo,
		auditLogger,
		log,
		verificationapp.WhitelistServiceConfig{
			CacheTTL:       cfg.Whitelist.CacheTTL,
			RequestTimeout: cfg.Whitelist.RequestTimeout,
			BatchLimit:     cfg.Whitelist.BatchConcurrency,
		},
	)
	timelineService := timelineapp.NewService(eventRepo, timelineExporter, auditLogger, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. CORS - Handle cross-origin requests
	// 5. BodyLimit - Limit request body size
	// 6. Tenant - Resolve tenant and actor from headers
	// 7. RateLimit - Per-tenant limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.Logger = log
	engine.Use(middleware.TenantWithConfig(tenantConfig))

	if cfg.HTTP.RateLimitEnabled {
		httpLimiter, err := cacheFactory.CreateRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		if err != nil {
			log.Fatal("Failed to create HTTP rate limiter", zap.Error(err))
		}
		engine.Use(middleware.RateLimit(httpLimiter, log))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Initialize handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db.Ping)
	contactHandler := handler.NewContactHandler(contactService)
	verificationHandler := handler.NewVerificationHandler(vatService, whitelistService)
	timelineHandler := handler.NewTimelineHandler(timelineService)

	// Health endpoints live outside API versioning and tenant scoping
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(contactHandler).
		Register(verificationHandler).
		Register(timelineHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
