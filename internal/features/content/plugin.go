package content

import (
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/gofiber/fiber/v2"
)

type Plugin struct {
	service *Service
	handler *Handler
}

func New(deps features.Deps) *Plugin {
	svc := NewService(deps.DB, deps.Locales)
	return &Plugin{service: svc, handler: NewHandler(svc)}
}

func (p *Plugin) ID() string { return "content" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&Banner{},
		&FAQ{},
		&Notice{},
	}
}

func (p *Plugin) Service() *Service { return p.service }

func (p *Plugin) RegisterRoutes(api fiber.Router, g features.Guards) {
	h := p.handler

	api.Get("/content/banners", g.Optional, h.Banners)
	api.Get("/content/faqs", g.Optional, h.FAQs)
	api.Get("/content/notices", g.Optional, h.Notices)
	api.Get("/content/notices/:id", g.Optional, h.Notice)
}

func (p *Plugin) RegisterAdminRoutes(admin fiber.Router) {
	s := p.service

	admin.Post("/content/banners", createHandler[Banner](s))
	admin.Put("/content/banners/:id", updateHandler[Banner](s))
	admin.Delete("/content/banners/:id", deleteHandler[Banner](s))

	admin.Post("/content/faqs", createHandler[FAQ](s))
	admin.Put("/content/faqs/:id", updateHandler[FAQ](s))
	admin.Delete("/content/faqs/:id", deleteHandler[FAQ](s))

	admin.Post("/content/notices", createHandler[Notice](s))
	admin.Put("/content/notices/:id", updateHandler[Notice](s))
	admin.Delete("/content/notices/:id", deleteHandler[Notice](s))
}
