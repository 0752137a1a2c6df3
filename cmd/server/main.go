package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/chat"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/companions"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/content"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/curators"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/location"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/media"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/translate"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Languages
	locales, err := locale.LoadFromFile(cfg.LocalesPath)
	if err != nil {
		slog.Error("failed to load locales", "path", cfg.LocalesPath, "error", err)
		os.Exit(1)
	}
	slog.Info("locales loaded", "default", locales.Default(), "languages", len(locales.All()))

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.MigrateShared(database.DB); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// ERROR+ records are also batched into system_logs
	dbLogHandler := logging.NewDBHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(logging.NewStdoutHandler(), dbLogHandler)))

	done := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, done)
	if err := locales.Watch(done); err != nil {
		slog.Warn("locale hot reload disabled", "error", err)
	}

	// Firebase Admin (ID tokens + FCM)
	var sender services.MulticastSender
	verifiers := map[string]services.IdentityVerifier{
		services.ProviderKakao: services.NewKakaoVerifier(cfg.KakaoUserInfoURL),
	}
	if cfg.FirebaseEnabled() {
		clients, err := services.NewFirebaseClients(context.Background(), cfg)
		if err != nil {
			slog.Error("firebase init failed, push and firebase sign-in disabled", "error", err)
		} else {
			sender = clients.Messaging
			verifiers[services.ProviderFirebase] = services.NewFirebaseVerifier(clients.Auth)
		}
	}

	var jwksSets []*services.RemoteJWKS
	if len(cfg.AppleClientIDs) > 0 {
		jwks := services.AppleJWKS()
		jwksSets = append(jwksSets, jwks)
		verifiers[services.ProviderApple] = services.NewAppleVerifier(cfg.AppleClientIDs, jwks)
	}
	if len(cfg.GoogleClientIDs) > 0 {
		jwks := services.GoogleJWKS()
		jwksSets = append(jwksSets, jwks)
		verifiers[services.ProviderGoogle] = services.NewGoogleVerifier(cfg.GoogleClientIDs, jwks)
	}

	// Services
	moderationService := services.NewModerationService(database.DB)
	userService := services.NewUserService(database.DB, locales, moderationService)
	pushService := services.NewPushService(database.DB, sender)
	authService := services.NewAuthService(database.DB, cfg, verifiers)

	deps := features.Deps{
		DB:         database.DB,
		Config:     cfg,
		Locales:    locales,
		Users:      userService,
		Moderation: moderationService,
		Notifier:   pushService,
	}

	// Features
	postsPlugin := posts.New(deps)
	companionsPlugin := companions.New(deps)
	translatePlugin := translate.New(deps, postsPlugin.Service())
	plugins := []features.Plugin{
		postsPlugin,
		companionsPlugin,
		chat.New(deps, companionsPlugin.Service()),
		curators.New(deps, postsPlugin.Service()),
		content.New(deps),
		media.New(deps),
		translatePlugin,
		location.New(deps),
	}

	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(database.DB, models); err != nil {
				slog.Error("feature migration failed", "feature", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("feature migrated", "feature", p.ID(), "models", len(models))
		}
		if c, ok := p.(features.Cleaner); ok {
			authService.AddCleaners(c)
		}
		if s, ok := p.(features.Starter); ok {
			go s.Start(done)
		}
	}

	// Handlers
	configHandler := handlers.NewRemoteConfigHandler(database.DB, locales)
	slog.Info("seeding remote config defaults")
	if err := configHandler.SeedDefaults(); err != nil {
		slog.Error("remote config seed failed", "error", err)
	}

	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Profile:      handlers.NewProfileHandler(userService, pushService, moderationService),
		Moderation:   handlers.NewModerationHandler(moderationService),
		Legal:        handlers.NewLegalHandler(),
		RemoteConfig: configHandler,
		Locale:       handlers.NewLocaleHandler(locales),
		Webhook:      handlers.NewWebhookHandler(cfg.BunnyWebhookSecret, postsPlugin.Service()),
		Health: handlers.NewHealthHandler(database.DB, map[string]bool{
			"bunny_storage": cfg.BunnyStorageEnabled(),
			"bunny_stream":  cfg.BunnyStreamEnabled(),
			"imagekit":      cfg.ImageKitEnabled(),
			"push":          pushService.Enabled(),
			"translate":     translatePlugin.Service().Available(),
			"geonames":      cfg.GeoNamesUsername != "",
		}),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Fiber app; video uploads stream through the body limit
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.ClientContext(locales))

	routes.Setup(app, cfg, database.DB, h, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(done)
	pushService.Wait()
	for _, jwks := range jwksSets {
		jwks.Close()
	}
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(database.DB); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
