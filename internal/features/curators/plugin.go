package curators

import (
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Plugin struct {
	service *Service
	handler *Handler
}

func New(deps features.Deps, postService *posts.Service) *Plugin {
	svc := NewService(deps.DB, postService, deps.Notifier)
	return &Plugin{service: svc, handler: NewHandler(svc, postService)}
}

func (p *Plugin) ID() string { return "curators" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Follow{}}
}

func (p *Plugin) Service() *Service { return p.service }

func (p *Plugin) CleanupUser(tx *gorm.DB, userID uuid.UUID) error {
	return p.service.CleanupUser(tx, userID)
}

func (p *Plugin) RegisterRoutes(api fiber.Router, g features.Guards) {
	h := p.handler

	api.Get("/curators", g.Optional, h.List)
	api.Get("/curators/me/followers", g.Auth, g.Curator, h.MyFollowers)
	api.Get("/curators/:id/followers", g.Optional, h.Followers)
	api.Get("/curators/:id/follow", g.Auth, h.FollowStatus)
	api.Post("/curators/:id/follow", g.Auth, h.ToggleFollow)
	api.Delete("/curators/:id/follow", g.Auth, h.Unfollow)
	api.Get("/me/following", g.Auth, h.Following)
	api.Get("/feed/curators", g.Auth, h.Feed)
}

func (p *Plugin) RegisterAdminRoutes(admin fiber.Router) {
	admin.Put("/curators/:id", p.handler.Grant)
	admin.Delete("/curators/:id", p.handler.Revoke)
}
