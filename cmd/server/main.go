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

	appbilling "github.com/pharmacy/pos-backend/internal/application/billing"
	appmasterdata "github.com/pharmacy/pos-backend/internal/application/masterdata"
	appprinting "github.com/pharmacy/pos-backend/internal/application/printing"
	"github.com/pharmacy/pos-backend/internal/infrastructure/auth"
	"github.com/pharmacy/pos-backend/internal/infrastructure/cache"
	"github.com/pharmacy/pos-backend/internal/infrastructure/config"
	"github.com/pharmacy/pos-backend/internal/infrastructure/erpnext"
	"github.com/pharmacy/pos-backend/internal/infrastructure/logger"
	"github.com/pharmacy/pos-backend/internal/infrastructure/persistence"
	"github.com/pharmacy/pos-backend/internal/infrastructure/printing"
	"github.com/pharmacy/pos-backend/internal/interfaces/http/handler"
	"github.com/pharmacy/pos-backend/internal/interfaces/http/middleware"
	"github.com/pharmacy/pos-backend/internal/interfaces/http/router"
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

	log.Info("Starting Pharmacy POS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Local database for the submission journal
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database ready", zap.String("driver", cfg.Database.Driver))

	journal := persistence.NewGormSubmissionJournal(db.DB)

	// ERPNext service account client
	erpClient, err := erpnext.NewClient(cfg.ERPNext, log)
	if err != nil {
		log.Fatal("Failed to create ERPNext client", zap.Error(err))
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ERPNext.Timeout)
		if err := erpClient.Login(ctx); err != nil {
			// Keep starting; the client re-logs in on the first request
			log.Warn("ERPNext service login failed at startup", zap.Error(err))
		}
		cancel()
	}

	// Master data cache
	cacheStore, err := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(cfg.Cache.Backend)
	if err != nil {
		log.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			log.Error("Error closing cache store", zap.Error(err))
		}
	}()

	lookupService := appmasterdata.NewLookupService(erpClient, cacheStore, cfg.Cache.TTL, log)

	// Billing sessions and the background stock refresher
	sessionService := appbilling.NewSessionService(
		lookupService,
		erpClient,
		erpClient,
		journal,
		cfg.Billing.SessionTTL,
		cfg.Billing.JanitorInterval,
		log,
	)
	defer func() {
		_ = sessionService.Close()
	}()

	stockRefresher := appbilling.NewStockRefresher(sessionService, erpClient, cfg.Billing.StockRefreshInterval, log)
	stockRefresher.Start()
	defer func() {
		_ = stockRefresher.Close()
	}()
	log.Info("Stock refresher started", zap.Duration("interval", cfg.Billing.StockRefreshInterval))

	// Receipt rendering (optional)
	var receiptService *appprinting.ReceiptService
	if cfg.Printing.Enabled {
		builder, err := printing.NewReceiptBuilder()
		if err != nil {
			log.Fatal("Failed to parse receipt template", zap.Error(err))
		}
		renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.RenderTimeout,
			Logger:         log,
		})
		if err != nil {
			log.Fatal("Failed to create PDF renderer", zap.Error(err))
		}
		defer func() {
			if err := renderer.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		receiptService = appprinting.NewReceiptService(builder, renderer, cfg.Printing, log)
		log.Info("Receipt printing enabled",
			zap.Float64("page_width_mm", cfg.Printing.PageWidthMM))
	}

	// Operator tokens
	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist
	if cfg.Cache.Backend == "redis" {
		redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("Redis token blacklist unavailable, using in-memory", zap.Error(err))
			blacklist = auth.NewInMemoryTokenBlacklist()
		} else {
			blacklist = redisBlacklist
		}
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	// HTTP handlers
	authHandler := handler.NewAuthHandler(erpClient, jwtService, blacklist, log)
	masterDataHandler := handler.NewMasterDataHandler(lookupService)
	billingHandler := handler.NewBillingHandler(sessionService, receiptService, journal, log)
	systemHandler := handler.NewSystemHandler(db.DB, sessionService)

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
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check outside API versioning
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/system/health",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	r.Register(router.AuthRoutes(authHandler)).
		Register(router.MasterDataRoutes(masterDataHandler)).
		Register(router.BillingRoutes(billingHandler)).
		Register(router.SystemRoutes(systemHandler))

	r.Setup()

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
