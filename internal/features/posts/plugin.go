package posts

import (
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Plugin struct {
	service *Service
	handler *Handler
}

func New(deps features.Deps) *Plugin {
	svc := NewService(deps.DB, deps.Moderation, deps.Users)
	return &Plugin{service: svc, handler: NewHandler(svc, deps.Moderation)}
}

func (p *Plugin) ID() string { return "posts" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&Post{},
		&PostLike{},
		&PostBookmark{},
	}
}

// Service exposes the post store to features that read posts.
func (p *Plugin) Service() *Service { return p.service }

func (p *Plugin) CleanupUser(tx *gorm.DB, userID uuid.UUID) error {
	return p.service.CleanupUser(tx, userID)
}

func (p *Plugin) RegisterRoutes(api fiber.Router, g features.Guards) {
	h := p.handler

	api.Get("/posts", g.Optional, h.Feed)
	api.Post("/posts/batch", g.Optional, h.Batch)
	api.Get("/posts/:id", g.Optional, h.Get)
	api.Get("/users/:id/posts", g.Optional, h.ByAuthor)

	api.Post("/posts", g.Auth, h.Create)
	api.Patch("/posts/:id", g.Auth, h.Update)
	api.Delete("/posts/:id", g.Auth, h.Delete)
	api.Post("/posts/:id/like", g.Auth, h.Like)
	api.Post("/posts/:id/bookmark", g.Auth, h.Bookmark)
	api.Post("/posts/:id/media", g.Auth, h.AttachMedia)
	api.Get("/me/bookmarks", g.Auth, h.Bookmarks)
}

func (p *Plugin) RegisterAdminRoutes(admin fiber.Router) {
	admin.Delete("/posts/:id", p.handler.AdminDelete)
}
