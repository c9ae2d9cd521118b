package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"nexusdesk/analyzer"
	"nexusdesk/config"
	controller "nexusdesk/controllers"
	"nexusdesk/dispatch"
	"nexusdesk/middleware"
	"nexusdesk/models"
	"nexusdesk/routes"
	"nexusdesk/storage"
	"nexusdesk/utils"
	"nexusdesk/worker"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig
	utils.InitLogger(cfg.LogLevel, cfg.Environment)

	flush, err := utils.InitSentry(cfg.SentryDSN, cfg.Environment)
	if err != nil {
		logrus.Warnf("Sentry disabled: %v", err)
	}
	defer flush()

	// Message repository
	var repo storage.MessageRepository
	if cfg.DBEnabled {
		if err := config.ConnectDB(); err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}
		repo = storage.NewGormRepository(config.DB)
	} else {
		repo = storage.NewMemoryRepository(models.DefaultMessages())
		logrus.Info("Using in-memory inbox with demo messages")
	}

	// Analyzer
	var ai analyzer.Analyzer = analyzer.Static{}
	if cfg.AI.APIKey != "" {
		ai = analyzer.NewGroqAnalyzer(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout, utils.Component("analyzer"))
	} else {
		logrus.Warn("GROQ_API_KEY not set, using keyword analyzer")
	}

	// Reply dispatch
	router := dispatch.NewRouter(dispatch.DelayDispatcher{Delay: cfg.SendDelay})
	if cfg.SMTP.Host != "" {
		router.Route(models.PlatformEmail, dispatch.NewMailDispatcher(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.FromEmail,
			utils.Component("dispatcher"),
		))
	}
	if cfg.Nats.URL != "" {
		natsDispatcher, err := dispatch.NewNatsDispatcher(cfg.Nats.URL, cfg.Nats.StreamName, cfg.Nats.SubjectPrefix, utils.Component("dispatcher"))
		if err != nil {
			logrus.Fatalf("Failed to initialize NATS dispatcher: %v", err)
		}
		defer natsDispatcher.Close()
		for _, p := range []models.Platform{models.PlatformWhatsApp, models.PlatformMessenger, models.PlatformSlack} {
			router.Route(p, natsDispatcher)
		}
	}

	// Rate limit storage
	var limiterStorage fiber.Storage
	if cfg.Redis.Enabled {
		redisStorage := middleware.NewRedisStorage(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisStorage.Ping(pingCtx); err != nil {
			logrus.Fatalf("Failed to connect to Redis: %v", err)
		}
		cancel()
		defer redisStorage.Close()
		limiterStorage = redisStorage
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IMAP.Host != "" {
		fetcher := worker.NewIMAPFetcher(cfg.IMAP, utils.Component("imap"))
		inboxWorker := worker.NewInboxWorker(repo, fetcher, cfg.IMAP.PollInterval, utils.Component("imap"))
		go inboxWorker.Start(ctx)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Nexus Desk",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 10*time.Second,
	})
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowCredentials: len(cfg.CORSAllowedOrigins) > 0,
		AllowedMethods:   middleware.DefaultCORSConfig().AllowedMethods,
		AllowedHeaders:   middleware.DefaultCORSConfig().AllowedHeaders,
		ExposedHeaders:   middleware.DefaultCORSConfig().ExposedHeaders,
		MaxAge:           middleware.DefaultCORSConfig().MaxAge,
	}))
	app.Use(middleware.Metrics())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	inbox := controller.NewInboxController(repo, ai, router, cfg.AI.DefaultTone, utils.Component("inbox"))
	routes.SetupRoutes(app, inbox, middleware.AnalyzeRateLimiter(cfg.RateLimitAnalyze, limiterStorage))

	go func() {
		logrus.Infof("🚀 Nexus Desk running on port %s", cfg.ServerPort)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.Errorf("Error shutting down Fiber: %v", err)
	}
	logrus.Info("Server gracefully stopped")
}
