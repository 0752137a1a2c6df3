package companions

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const expireInterval = 10 * time.Minute

type Plugin struct {
	service  *Service
	handler  *Handler
	interval time.Duration
}

func New(deps features.Deps) *Plugin {
	svc := NewService(deps.DB, deps.Moderation, deps.Users, deps.Notifier)
	interval := deps.Config.CompanionExpiryEvery
	if interval <= 0 {
		interval = expireInterval
	}
	return &Plugin{service: svc, handler: NewHandler(svc, deps.Moderation), interval: interval}
}

func (p *Plugin) ID() string { return "companions" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{&CompanionRequest{}}
}

func (p *Plugin) Service() *Service { return p.service }

func (p *Plugin) CleanupUser(tx *gorm.DB, userID uuid.UUID) error {
	return p.service.CleanupUser(tx, userID)
}

func (p *Plugin) RegisterRoutes(api fiber.Router, g features.Guards) {
	h := p.handler

	api.Post("/companions", g.Auth, h.Send)
	api.Get("/companions/received", g.Auth, h.Received)
	api.Get("/companions/sent", g.Auth, h.Sent)
	api.Post("/companions/:id/accept", g.Auth, h.Accept)
	api.Post("/companions/:id/reject", g.Auth, h.Reject)
	api.Delete("/companions/:id", g.Auth, h.Cancel)
}

// Start expires past meetings until done is closed.
func (p *Plugin) Start(done <-chan struct{}) {
	p.service.expireLoop(p.interval, done)
}
