package translate

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/gofiber/fiber/v2"
)

type Plugin struct {
	service *Service
	handler *Handler
}

// New wires Google Translation first and Gemini as the fallback, each only
// when its key is set.
func New(deps features.Deps, postsSvc *posts.Service) *Plugin {
	cfg := deps.Config

	var providers []Translator
	if cfg.GoogleTranslateAPIKey != "" {
		providers = append(providers, NewGoogleTranslator(cfg.GoogleTranslateAPIKey, cfg.ExternalAPITimeout))
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGeminiTranslator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Warn("gemini translator disabled", "error", err)
		} else {
			providers = append(providers, gemini)
		}
	}
	if len(providers) == 0 {
		slog.Warn("no translation provider configured")
	}

	svc := NewService(deps.DB, deps.Locales, postsSvc, providers...)
	return &Plugin{service: svc, handler: NewHandler(svc)}
}

func (p *Plugin) ID() string { return "translate" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Translation{}}
}

func (p *Plugin) Service() *Service { return p.service }

func (p *Plugin) RegisterRoutes(api fiber.Router, g features.Guards) {
	api.Post("/translate", g.Optional, p.handler.Translate)
	api.Get("/posts/:id/translate", g.Optional, p.handler.TranslatePost)
}
