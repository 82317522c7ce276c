package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/onurcolak/unified-inbox-service/environments"
	"github.com/onurcolak/unified-inbox-service/handlers"
	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/events"
	"github.com/onurcolak/unified-inbox-service/internal/lock"
	"github.com/onurcolak/unified-inbox-service/internal/repository"
	"github.com/onurcolak/unified-inbox-service/internal/scheduler"
	"github.com/onurcolak/unified-inbox-service/internal/service"
	"github.com/onurcolak/unified-inbox-service/pkg/database"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
	"github.com/onurcolak/unified-inbox-service/pkg/redis"
	"github.com/onurcolak/unified-inbox-service/pkg/validator"
	"github.com/onurcolak/unified-inbox-service/pkg/webhook"
	"github.com/onurcolak/unified-inbox-service/routes"

	_ "github.com/onurcolak/unified-inbox-service/docs" // swagger docs
)

// @title Unified Inbox Service API
// @version 1.0
// @description Multi-channel customer inbox with SMS, WhatsApp and email outreach
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email onur.colak@useinsider.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	// Load config
	cfg := environments.Load()

	logger.Init(cfg.Log.Level)

	// Hard-fail if required secrets are missing
	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("JWT_SECRET is required but not set")
	}
	if cfg.Auth.SchedulerAPIKey == "" {
		logger.Fatalf("SCHEDULER_API_KEY is required but not set")
	}
	if cfg.Auth.CronSecret == "" {
		logger.Fatalf("CRON_SECRET is required but not set")
	}

	logger.Infof("Starting Unified Inbox Service...")

	// Init DB
	db, err := database.NewDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed data
	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	// Init Valkey. The service runs without it, losing the dispatch cache and the
	// cross-instance lock.
	redisClient, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Valkey not available, caching disabled: %v", err)
		redisClient = nil
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if redisClient != nil && cfg.Scheduler.LockEnabled {
		locker = lock.NewValkeyLocker(redisClient.Valkey())
		logger.Infof("Using Valkey dispatch lock")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Infof("Publishing events to Kafka topic %s", cfg.Kafka.Topic)
	}

	// Only configured providers are wired, so unconfigured channels fail as unsupported.
	var senders []channel.Sender
	if cfg.Twilio.Configured() {
		twilioClient := channel.NewTwilioClient(cfg.Twilio, cfg.Provider.Timeout)
		if cfg.Twilio.PhoneNumber != "" {
			senders = append(senders, channel.NewSMSSender(twilioClient, cfg.Twilio.PhoneNumber))
		}
		if cfg.Twilio.WhatsAppNumber != "" {
			senders = append(senders, channel.NewWhatsAppSender(twilioClient, cfg.Twilio.WhatsAppNumber))
		}
	} else {
		logger.Warnf("Twilio is not configured, SMS and WhatsApp are disabled")
	}
	if cfg.Resend.APIKey != "" {
		senders = append(senders, channel.NewEmailSender(cfg.Resend, cfg.Provider.Timeout))
	} else {
		logger.Warnf("Resend is not configured, email is disabled")
	}
	registry := channel.NewRegistry(senders...)

	// Initialize repositories
	contactRepo := repository.NewContactRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	scheduledRepo := repository.NewScheduledMessageRepository(db)

	// Initialize services
	scheduleService := service.NewScheduleService(templateRepo, scheduledRepo, contactRepo)
	messageService := service.NewMessageService(contactRepo, messageRepo, scheduleService, registry, publisher)
	contactService := service.NewContactService(contactRepo, messageRepo, noteRepo)
	inboundService := service.NewInboundService(contactRepo, messageRepo, publisher)

	opts := service.DispatcherOptions{
		BatchSize: cfg.Scheduler.BatchSize,
		LockTTL:   cfg.Scheduler.LockTTL,
	}
	var dispatcher *service.Dispatcher
	if redisClient != nil {
		dispatcher = service.NewDispatcher(scheduledRepo, registry, redisClient, publisher, locker, opts)
	} else {
		dispatcher = service.NewDispatcher(scheduledRepo, registry, nil, publisher, locker, opts)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize scheduler
	var sched *scheduler.Scheduler
	if cfg.Alert.WebhookURL != "" {
		webhookClient := webhook.NewWebhookClient(cfg.Alert.WebhookURL, cfg.Provider.Timeout)
		logger.Infof("Alert webhook configured: %s", webhookClient.GetURL())
		sched = scheduler.NewScheduler(dispatcher, webhookClient, cfg.Scheduler.Interval, cfg.Alert.IterationCount)
	} else {
		sched = scheduler.NewScheduler(dispatcher, nil, cfg.Scheduler.Interval, cfg.Alert.IterationCount)
	}

	// Initialize handlers
	var scheduledHandler *handlers.ScheduledHandler
	if redisClient != nil {
		scheduledHandler = handlers.NewScheduledHandler(scheduleService, dispatcher, redisClient)
	} else {
		scheduledHandler = handlers.NewScheduledHandler(scheduleService, dispatcher, nil)
	}

	h := routes.Handlers{
		Health:    handlers.NewHealthHandler(db, redisClient, dispatcher),
		Contact:   handlers.NewContactHandler(contactService),
		Note:      handlers.NewNoteHandler(contactService),
		Message:   handlers.NewMessageHandler(messageService),
		Template:  handlers.NewTemplateHandler(scheduleService),
		Scheduled: scheduledHandler,
		Scheduler: handlers.NewSchedulerHandler(sched, ctx),
		Settings:  handlers.NewSettingsHandler(cfg, registry),
		Webhook:   handlers.NewWebhookHandler(inboundService),
	}

	// Auto-start scheduler
	if cfg.Scheduler.AutoStart {
		logger.Infof("Auto-starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			logger.Warnf("Failed to auto-start scheduler: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"x-ins-auth-key",
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e, h, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Cancel context to signal all goroutines to stop
	cancel()

	// Stop scheduler first (with timeout)
	if sched.IsRunning() {
		logger.Infof("Stopping scheduler...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- sched.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping scheduler: %v", err)
			} else {
				logger.Infof("Scheduler stopped successfully")
			}
		case <-stopCtx.Done():
			logger.Warnf("Scheduler stop timeout, forcing shutdown")
		}
	}

	// Shutdown HTTP server (with timeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	if err := publisher.Close(); err != nil {
		logger.Errorf("Error closing event publisher: %v", err)
	}

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	// Close Valkey connection
	if redisClient != nil {
		logger.Infof("Closing Valkey connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Valkey: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}
