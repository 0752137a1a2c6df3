package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// Handlers are the core (non-feature) HTTP handlers.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Profile      *handlers.ProfileHandler
	Moderation   *handlers.ModerationHandler
	Health       *handlers.HealthHandler
	Legal        *handlers.LegalHandler
	RemoteConfig *handlers.RemoteConfigHandler
	Locale       *handlers.LocaleHandler
	Webhook      *handlers.WebhookHandler
}

func rateLimit(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

// Guards builds the per-route middleware handed to features.
func Guards(cfg *config.Config, db *gorm.DB) features.Guards {
	return features.Guards{
		Auth:     middleware.JWTProtected(cfg),
		Optional: middleware.OptionalJWT(cfg),
		Admin:    middleware.AdminRequired(db, cfg),
		Curator:  middleware.CuratorRequired(db),
	}
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers, plugins []features.Plugin) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(rateLimit(60))

	g := Guards(cfg, db)

	api.Get("/health", h.Health.Check)
	api.Get("/config", h.RemoteConfig.GetConfig)
	api.Get("/languages", g.Optional, h.Locale.List)
	api.Get("/legal/privacy", h.Legal.PrivacyPolicy)
	api.Get("/legal/terms", h.Legal.TermsOfService)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(rateLimit(10))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Get("/providers", h.Auth.Providers)
	auth.Post("/social/:provider", h.Auth.SocialSignIn)

	// Guards are attached per route so public routes stay public.
	api.Post("/auth/logout", g.Auth, h.Auth.Logout)
	api.Delete("/auth/account", g.Auth, h.Auth.DeleteAccount)

	api.Get("/me", g.Auth, h.Profile.GetMe)
	api.Put("/me/profile", g.Auth, h.Profile.CompleteProfile)
	api.Put("/me/consents", g.Auth, h.Profile.UpdateConsents)
	api.Put("/me/language", g.Auth, h.Profile.SetLanguage)
	api.Post("/me/devices", g.Auth, h.Profile.RegisterDeviceToken)
	api.Delete("/me/devices", g.Auth, h.Profile.RemoveDeviceToken)
	api.Get("/users/:id", g.Optional, h.Profile.GetPublicProfile)

	api.Post("/reports", g.Auth, h.Moderation.CreateReport)
	api.Get("/blocks", g.Auth, h.Moderation.ListBlocked)
	api.Post("/blocks", g.Auth, h.Moderation.BlockUser)
	api.Delete("/blocks/:id", g.Auth, h.Moderation.UnblockUser)

	// The admin token header works without a user session, so the JWT is
	// optional here and AdminRequired decides.
	admin := api.Group("/admin", g.Optional, g.Admin)
	admin.Get("/moderation/reports", h.Moderation.ListReports)
	admin.Put("/moderation/reports/:id", h.Moderation.ActionReport)
	admin.Put("/config/:key", h.RemoteConfig.SetConfigKey)
	admin.Delete("/config/:key", h.RemoteConfig.DeleteConfigKey)

	// Webhooks authenticate with a shared secret, not a JWT.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/bunny", h.Webhook.HandleBunnyStream)

	for _, p := range plugins {
		p.RegisterRoutes(api, g)
		if ap, ok := p.(features.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin)
		}
	}
}
