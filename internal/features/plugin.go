// Package features holds the contract every feature module implements and
// the helpers their handlers share.
package features

import (
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deps are the core services handed to every feature.
type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Locales    *locale.Registry
	Users      *services.UserService
	Moderation *services.ModerationService
	Notifier   services.Notifier
}

// Guards are attached per route. Groups that share a prefix in fiber share
// middleware, so features never rely on group-level auth.
type Guards struct {
	Auth     fiber.Handler
	Optional fiber.Handler
	Admin    fiber.Handler
	// Curator must follow Auth.
	Curator fiber.Handler
}

// Plugin defines the interface every feature must implement.
type Plugin interface {
	// ID returns the unique feature identifier.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts feature routes on the /api router.
	RegisterRoutes(api fiber.Router, g Guards)
}

// AdminPlugin extends Plugin with admin-only routes. The router already
// carries the JWT and admin middleware.
type AdminPlugin interface {
	Plugin
	RegisterAdminRoutes(admin fiber.Router)
}

// Starter is implemented by features that run background loops. Start
// returns once done is closed.
type Starter interface {
	Start(done <-chan struct{})
}

// Cleaner is implemented by features that own rows keyed by user. It runs
// inside the account deletion transaction.
type Cleaner interface {
	CleanupUser(tx *gorm.DB, userID uuid.UUID) error
}
