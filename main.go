// Package main provides the main entry point for the WebBuilder CRM API
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/webbuilder-crm/app/handlers"
	"github.com/amirphl/webbuilder-crm/app/middleware"
	"github.com/amirphl/webbuilder-crm/app/router"
	"github.com/amirphl/webbuilder-crm/app/scheduler"
	"github.com/amirphl/webbuilder-crm/app/services"
	businessflow "github.com/amirphl/webbuilder-crm/business_flow"
	"github.com/amirphl/webbuilder-crm/config"
	_ "github.com/amirphl/webbuilder-crm/docs"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

// @title WebBuilder CRM API
// @version 1.0
// @description Lead intake, quoting and conversion tracking for a web design studio.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log.Println("Starting WebBuilder CRM application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	closeLog := initializeLogging(cfg.Logging)
	defer closeLog()

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Stop background workers once no request can reach them
	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Println("Server stopped")
}

// initializeLogging points the standard logger at stdout, a rotating file, or both
func initializeLogging(cfg config.LoggingConfig) func() {
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lmicroseconds)
	if cfg.Output == "stdout" || cfg.FilePath == "" {
		return func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	var out io.Writer = rotator
	if cfg.Output == "both" {
		out = io.MultiWriter(os.Stdout, rotator)
	}
	log.SetOutput(out)
	log.Printf("Logging to %s (output=%s)", cfg.FilePath, cfg.Output)

	return func() {
		log.SetOutput(os.Stdout)
		_ = rotator.Close()
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		NowFunc:        utils.UTCNow,
		Logger: gormlogger.New(log.Default(), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity; nil when caching is off
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		log.Println("Redis cache disabled, settings are cached in process only")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis; the returned func stops the monitor
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return func() {
		cancel()
		_ = client.Close()
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthInterval))
	}

	// Initialize repositories
	leadRepo := repository.NewLeadRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	itemRepo := repository.NewQuoteServiceRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	conversionRepo := repository.NewConversionTrackingRepository(db)
	counterRepo := repository.NewSequenceCounterRepository(db)
	settingRepo := repository.NewSiteSettingRepository(db)
	staffRepo := repository.NewStaffUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	if err := ensureBootstrapStaff(staffRepo, cfg.Staff, cfg.Security.BcryptCost); err != nil {
		return nil, err
	}

	captchaSvc, err := services.NewCaptchaServiceRotate(cfg.Security.CaptchaTTL, cfg.Security.CaptchaPadding, cfg.Security.CaptchaSizePx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize captcha service: %w", err)
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	quoteSettings, err := quoteSettingsFromConfig(cfg.Quote)
	if err != nil {
		return nil, err
	}

	// Initialize flows
	tracker := businessflow.NewConversionTracker(conversionRepo, log.New(log.Writer(), "conversion: ", log.Flags()))
	numberer := businessflow.NewQuoteNumberer(quoteRepo, counterRepo)

	intakeFlow := businessflow.NewIntakeFlow(leadRepo, tracker, db)
	leadFlow := businessflow.NewLeadFlow(leadRepo, quoteRepo, conversionRepo, staffRepo, auditRepo, db, nil)
	quoteFlow := businessflow.NewQuoteFlow(
		quoteRepo,
		itemRepo,
		serviceRepo,
		leadRepo,
		auditRepo,
		numberer,
		db,
		quoteSettings,
		nil,
		log.New(log.Writer(), "quote: ", log.Flags()),
	)
	serviceFlow := businessflow.NewServiceFlow(serviceRepo, auditRepo)
	conversionFlow := businessflow.NewConversionFlow(conversionRepo)
	reportFlow := businessflow.NewReportFlow(leadRepo, quoteRepo, conversionRepo, nil)
	settingsFlow := businessflow.NewSettingsFlow(
		settingRepo,
		auditRepo,
		rc,
		cfg.Cache.SettingsTTL,
		cfg.Cache.SettingsLocal,
		nil,
		log.New(log.Writer(), "settings: ", log.Flags()),
	)
	staffAuthFlow := businessflow.NewStaffAuthFlow(staffRepo, auditRepo, tokenService, captchaSvc, nil)

	// Initialize handlers
	h := router.Handlers{
		Public:    handlers.NewPublicHandler(intakeFlow, serviceFlow, settingsFlow),
		StaffAuth: handlers.NewStaffAuthHandler(staffAuthFlow),
		Leads:     handlers.NewLeadHandler(leadFlow),
		Quotes:    handlers.NewQuoteHandler(quoteFlow),
		Services:  handlers.NewServiceHandler(serviceFlow),
		Reports:   handlers.NewReportHandler(conversionFlow, reportFlow),
		Settings:  handlers.NewSettingsHandler(settingsFlow),
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	dbHealth := func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return sqlDB.PingContext(ctx)
	}

	appRouter := router.NewFiberRouter(cfg, h, authMiddleware, settingsFlow, dbHealth)

	if cfg.Scheduler.QuoteExpiryEnabled {
		sched := scheduler.NewQuoteExpiryScheduler(quoteFlow, nil, cfg.Scheduler.QuoteExpiryInterval)
		stopFuncs = append(stopFuncs, sched.Start(context.Background()))
	}

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}

func quoteSettingsFromConfig(cfg config.QuoteConfig) (businessflow.QuoteSettings, error) {
	settings := businessflow.DefaultQuoteSettings()
	if cfg.DefaultTaxRate != "" {
		rate, err := decimal.NewFromString(cfg.DefaultTaxRate)
		if err != nil {
			return settings, fmt.Errorf("invalid QUOTE_DEFAULT_TAX_RATE %q: %w", cfg.DefaultTaxRate, err)
		}
		settings.DefaultTaxRate = rate
	}
	if cfg.ValidityDays > 0 {
		settings.ValidityDays = cfg.ValidityDays
	}
	if cfg.NumberingAttempts > 0 {
		settings.NumberingAttempts = cfg.NumberingAttempts
	}
	return settings, nil
}

// ensureBootstrapStaff creates the first staff account when none exists yet
func ensureBootstrapStaff(staffRepo repository.StaffUserRepository, cfg config.StaffConfig, bcryptCost int) error {
	if cfg.BootstrapUsername == "" {
		return nil
	}
	ctx := context.Background()

	count, err := staffRepo.Count(ctx, models.StaffUserFilter{})
	if err != nil {
		return fmt.Errorf("failed to count staff users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	staff := &models.StaffUser{
		Username:     cfg.BootstrapUsername,
		PasswordHash: string(hash),
		IsActive:     utils.ToPtr(true),
	}
	if cfg.BootstrapEmail != "" {
		staff.Email = utils.ToPtr(cfg.BootstrapEmail)
	}
	if err := staffRepo.Save(ctx, staff); err != nil {
		return fmt.Errorf("failed to create bootstrap staff user: %w", err)
	}

	log.Printf("Bootstrap staff user %q created", cfg.BootstrapUsername)
	return nil
}
