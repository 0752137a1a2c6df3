package media

import (
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/gofiber/fiber/v2"
)

type Plugin struct {
	images   *Storage
	videos   *Stream
	imagekit *ImageKit
	warmer   *Warmer
	handler  *Handler
}

func New(deps features.Deps) *Plugin {
	cfg := deps.Config
	p := &Plugin{
		images:   NewStorage(cfg.BunnyStorageEndpoint(), cfg.BunnyStorageZone, cfg.BunnyStorageKey, cfg.BunnyCDNHost),
		videos:   NewStream(cfg.BunnyStreamLibraryID, cfg.BunnyStreamAPIKey, cfg.BunnyStreamCDNHost),
		imagekit: NewImageKit(cfg.ImageKitPublicKey, cfg.ImageKitPrivateKey, cfg.ImageKitURLEndpoint),
		warmer:   NewWarmer(cfg.ExternalAPITimeout),
	}
	p.handler = NewHandler(p.images, p.videos, p.imagekit, p.warmer)
	return p
}

func (p *Plugin) ID() string { return "media" }

func (p *Plugin) Models() []interface{} { return nil }

func (p *Plugin) Warmer() *Warmer { return p.warmer }

func (p *Plugin) RegisterRoutes(api fiber.Router, g features.Guards) {
	h := p.handler

	api.Post("/media/images", g.Auth, h.UploadImages)
	api.Delete("/media/images", g.Auth, h.DeleteImage)
	api.Post("/media/videos", g.Auth, h.UploadVideo)
	api.Post("/media/warm", g.Auth, h.Warm)
	api.Get("/media/imagekit/auth", g.Auth, h.ImageKitAuth)
}

// The ImageKit calls below use the account's private key, so they see
// every user's files.
func (p *Plugin) RegisterAdminRoutes(admin fiber.Router) {
	h := p.handler

	admin.Get("/media/imagekit/files", h.ImageKitFiles)
	admin.Delete("/media/imagekit/:file_id", h.ImageKitDelete)
}
