package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appintegration "github.com/erp/ordersource/internal/application/integration"
	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/infrastructure/auth"
	"github.com/erp/ordersource/internal/infrastructure/cache"
	"github.com/erp/ordersource/internal/infrastructure/config"
	"github.com/erp/ordersource/internal/infrastructure/logger"
	"github.com/erp/ordersource/internal/infrastructure/migration"
	"github.com/erp/ordersource/internal/infrastructure/persistence"
	"github.com/erp/ordersource/internal/infrastructure/telemetry"
	"github.com/erp/ordersource/internal/interfaces/http/handler"
	"github.com/erp/ordersource/internal/interfaces/http/middleware"
	"github.com/erp/ordersource/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	migrationsPath := flag.String("migrations", "migrations", "Path to migrations directory used for the schema check")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Order Source gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tp, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.Integration.ModuleVersion,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Warn("Database tracing not installed", zap.Error(err))
	}

	checkSchema(&cfg.Database, *migrationsPath, log)

	metrics := telemetry.NewMetrics()

	// Credential store behind the two-tier cache
	credentialCache, err := cache.NewCredentialStoreFactory(cfg.Redis, cfg.Integration.CredentialCacheTTL,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
		cache.WithRecorder(metrics),
	).Create(rootCtx, persistence.NewGormCredentialStore(db.DB))
	if err != nil {
		log.Fatal("Failed to initialize credential cache", zap.Error(err))
	}
	defer func() {
		if err := credentialCache.Close(); err != nil {
			log.Error("Error closing credential cache", zap.Error(err))
		}
	}()
	go func() {
		if err := credentialCache.ListenForInvalidations(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Credential invalidation listener stopped", zap.Error(err))
		}
	}()

	// Application services
	batch := integration.BatchOptions{Concurrency: cfg.Integration.BatchConcurrency}
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	authenticator := appintegration.NewAuthenticator(credentialCache, log)
	orderExport := appintegration.NewOrderExportService(orderRepo, log)
	inventory := appintegration.NewInventoryService(
		persistence.NewGormCatalog(db.DB),
		persistence.NewGormInventorySource(db.DB),
		batch, metrics, log,
	)
	shipments := appintegration.NewShipmentNotificationService(
		orderRepo,
		persistence.NewGormShipmentRepository(db.DB),
		batch, metrics, log,
	)
	deliveryOptions := appintegration.NewDeliveryOptionService(
		persistence.NewGormDeliveryOptionRepository(db.DB),
		batch, metrics, log,
	)
	apiKeys := appintegration.NewAPIKeyService(credentialCache, log)

	failureLimiter := middleware.NewFailureLimiter(cfg.HTTP.AuthFailureRate, cfg.HTTP.AuthFailureBurst)
	defer failureLimiter.Stop()

	engine := newEngine(cfg, log, metrics)

	handlers := router.GatewayHandlers{
		OrderSource: handler.NewOrderSourceHandler(handler.OrderSourceServices{
			Orders:          orderExport,
			Inventory:       inventory,
			Shipments:       shipments,
			DeliveryOptions: deliveryOptions,
		}, log),
		Diagnostics: handler.NewDiagnosticsHandler(cfg.Integration, log),
		Admin:       handler.NewAdminHandler(apiKeys, log),
	}
	gatewayAuth := router.GatewayAuth{
		APIKey: middleware.APIKeyAuth(middleware.APIKeyAuthConfig{
			Authenticator: authenticator,
			Limiter:       failureLimiter,
			Recorder:      metrics,
			Logger:        log,
		}),
		AdminJWT: middleware.AdminJWT(middleware.AdminJWTConfig{
			JWTService: auth.NewJWTService(cfg.JWT),
			Limiter:    failureLimiter,
			Logger:     log,
		}),
	}
	if cfg.Integration.LegacyEnabled {
		handlers.Legacy = handler.NewLegacyHandler(orderExport, shipments, log)
		gatewayAuth.Legacy = middleware.LegacyAuth(middleware.LegacyAuthConfig{
			Authenticator: appintegration.NewLegacyAuthenticator(authenticator, persistence.NewGormLegacyUserStore(db.DB), log),
			TokenHeader:   cfg.Integration.LegacyTokenHeader,
			Limiter:       failureLimiter,
			Recorder:      metrics,
			OnFailure:     handler.WriteFault,
			Logger:        log,
		})
		log.Info("Legacy XML endpoint enabled")
	}

	// Health and metrics live outside the versioned API
	engine.GET("/health", handler.NewHealthHandler(db, log).Health)
	if cfg.Telemetry.MetricsEnabled {
		engine.GET(cfg.Telemetry.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.NewOrderSourceRoutes(handlers, gatewayAuth)).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-rootCtx.Done():
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine with the fixed middleware pipeline:
// request id, recovery, tracing, access log, metrics, security headers,
// body limit and request timeout.
func newEngine(cfg *config.Config, log *zap.Logger, metrics *telemetry.Metrics) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.MetricsEnabled {
		engine.Use(middleware.HTTPMetrics(metrics))
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.RequestBodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	return engine
}

// checkSchema warns when the database lags behind the migrations directory.
// The server still starts; migrations are applied with cmd/migrate.
func checkSchema(cfg *config.DatabaseConfig, path string, log *zap.Logger) {
	if _, err := os.Stat(path); err != nil {
		log.Debug("Migrations directory not found, skipping schema check", zap.String("path", path))
		return
	}

	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Warn("Schema check skipped", zap.Error(err))
		return
	}
	m, err := migration.New(sqlDB, path, log)
	if err != nil {
		_ = sqlDB.Close()
		log.Warn("Schema check skipped", zap.Error(err))
		return
	}
	defer func() {
		_ = m.Close()
		_ = sqlDB.Close()
	}()

	switch err := m.CheckCurrent(); {
	case err == nil:
		log.Info("Database schema is current")
	case errors.Is(err, migration.ErrSchemaOutdated), errors.Is(err, migration.ErrSchemaDirty):
		log.Warn("Database schema needs attention, run cmd/migrate", zap.Error(err))
	default:
		log.Warn("Schema check failed", zap.Error(err))
	}
}
