package chat

import (
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/companions"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Plugin struct {
	service *Service
	handler *Handler
}

func New(deps features.Deps, companionService *companions.Service) *Plugin {
	svc := NewService(deps.DB, deps.Moderation, deps.Users, companionService, deps.Notifier)
	return &Plugin{service: svc, handler: NewHandler(svc, deps.Moderation)}
}

func (p *Plugin) ID() string { return "chat" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&Room{},
		&Message{},
	}
}

func (p *Plugin) Service() *Service { return p.service }

func (p *Plugin) CleanupUser(tx *gorm.DB, userID uuid.UUID) error {
	return p.service.CleanupUser(tx, userID)
}

func (p *Plugin) RegisterRoutes(api fiber.Router, g features.Guards) {
	h := p.handler

	api.Get("/chat/rooms", g.Auth, h.ListRooms)
	api.Post("/chat/rooms", g.Auth, h.OpenRoom)
	api.Get("/chat/rooms/:id/messages", g.Auth, h.Messages)
	api.Post("/chat/rooms/:id/messages", g.Auth, h.Send)
	api.Post("/chat/rooms/:id/read", g.Auth, h.MarkRead)
}
