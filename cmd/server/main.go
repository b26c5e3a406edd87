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

	appsplitting "github.com/zenheart/ordersync/internal/application/splitting"
	"github.com/zenheart/ordersync/internal/domain/splitting"
	"github.com/zenheart/ordersync/internal/infrastructure/config"
	"github.com/zenheart/ordersync/internal/infrastructure/ecommerce"
	"github.com/zenheart/ordersync/internal/infrastructure/logger"
	"github.com/zenheart/ordersync/internal/infrastructure/persistence"
	"github.com/zenheart/ordersync/internal/infrastructure/scheduler"
	"github.com/zenheart/ordersync/internal/infrastructure/storage"
	"github.com/zenheart/ordersync/internal/infrastructure/telemetry"
	"github.com/zenheart/ordersync/internal/interfaces/http/handler"
	"github.com/zenheart/ordersync/internal/interfaces/http/middleware"
	"github.com/zenheart/ordersync/internal/interfaces/http/router"
)

func main() {
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting order sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database tracing when both tracing and DB tracing are on
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracingCfg := telemetry.DefaultDBTracingConfig()
		dbTracingCfg.Enabled = true
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			dbTracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		}
		dbTracingPlugin := telemetry.NewDBTracingPlugin(dbTracingCfg, log)
		if err := dbTracingPlugin.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	rawOrderRepo := persistence.NewGormRawOrderRepository(db.DB)
	subOrderRepo := persistence.NewGormSubOrderRepository(db.DB)

	// Initialize the platform adapter
	shopifyCfg := ecommerce.NewShopifyConfig(cfg.Shopify.StoreName, cfg.Shopify.AccessToken)
	shopifyCfg.ClientID = cfg.Shopify.ClientID
	shopifyCfg.ClientSecret = cfg.Shopify.ClientSecret
	if cfg.Shopify.APIVersion != "" {
		shopifyCfg.APIVersion = cfg.Shopify.APIVersion
	}
	if cfg.Shopify.RequestTimeout > 0 {
		shopifyCfg.Timeout = cfg.Shopify.RequestTimeout
	}
	if cfg.Shopify.PageSize > 0 {
		shopifyCfg.PageSize = cfg.Shopify.PageSize
	}
	tokens := ecommerce.NewTokenProvider(shopifyCfg, nil)
	orderSource, err := ecommerce.NewShopifyAdapter(shopifyCfg, tokens)
	if err != nil {
		log.Fatal("Failed to initialize Shopify adapter", zap.Error(err))
	}

	// Build the region classifier, from config when a table is set
	var classifier *splitting.Classifier
	if len(cfg.Regions.Table) > 0 {
		table := make(map[string]splitting.Region, len(cfg.Regions.Table))
		for label, region := range cfg.Regions.Table {
			table[label] = splitting.Region(region)
		}
		classifier = splitting.NewClassifier(table)
		log.Info("Region table loaded from config", zap.Int("entries", len(table)))
	} else {
		classifier = splitting.NewDefaultClassifier()
	}
	splitter := splitting.NewSplitter(classifier)

	shopID := shopifyCfg.ShopDomain()

	// Application services
	splitService := appsplitting.NewSplitService(
		shopID,
		orderSource,
		ecommerce.OrderFromNode,
		rawOrderRepo,
		subOrderRepo,
		splitter,
		log,
	)

	// Object storage for export uploads (optional)
	var objectStorage appsplitting.ObjectStorage
	var urlSigner handler.DownloadURLSigner
	if cfg.Export.UploadToS3 {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		objectStorage = s3Storage
		urlSigner = s3Storage
		log.Info("Object storage ready", zap.String("bucket", s3Storage.GetBucket()))
	}

	exportService := appsplitting.NewExportService(
		shopID,
		subOrderRepo,
		objectStorage,
		splitting.ExportOptions{
			ShopAccount: cfg.Export.ShopAccount,
			Warehouse:   cfg.Export.Warehouse,
		},
		log,
	)

	// Background sync scheduler (if enabled)
	var syncScheduler *scheduler.SyncScheduler
	if cfg.Scheduler.Enabled {
		schedulerCfg := scheduler.SyncSchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			ShopID:            shopID,
			SyncInterval:      cfg.Scheduler.SyncInterval,
			LookbackWindow:    cfg.Scheduler.LookbackWindow,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}
		executor := scheduler.NewSplitSyncExecutor(splitService, log)
		syncScheduler, err = scheduler.NewSyncScheduler(schedulerCfg, executor, log)
		if err != nil {
			log.Fatal("Failed to initialize sync scheduler", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := syncScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("sync_interval", cfg.Scheduler.SyncInterval),
			zap.Duration("lookback_window", cfg.Scheduler.LookbackWindow),
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
		)
	}

	// Initialize HTTP handlers. Interface-typed nils stay nil when the
	// scheduler is disabled.
	var schedulerForHandler handler.SyncScheduler
	var schedulerInspector handler.SchedulerInspector
	if syncScheduler != nil {
		schedulerForHandler = syncScheduler
		schedulerInspector = syncScheduler
	}
	orderHandler := handler.NewOrderHandler(splitService, schedulerForHandler)
	exportHandler := handler.NewExportHandler(exportService, urlSigner)
	systemHandler := handler.NewSystemHandler(schedulerInspector)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack in order: request ID, panic recovery, request
	// logging, tracing, security headers, CORS, body size limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Register API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(orderHandler).
		Register(exportHandler).
		Register(systemHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
