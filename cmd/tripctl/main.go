// Command tripctl runs maintenance tasks against the TripMate database and
// the third-party services the server talks to.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

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
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
)

// openDB is swapped out in tests.
var openDB = func(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DBPassword == "" {
		return nil, errors.New("DB_PASSWORD environment variable is required")
	}
	if err := database.Connect(cfg); err != nil {
		return nil, err
	}
	return database.DB, nil
}

// env is what a command needs once the database is open.
type env struct {
	cfg     *config.Config
	db      *gorm.DB
	locales *locale.Registry
}

func loadEnv() (*env, error) {
	cfg := config.Load()
	locales, err := locale.LoadFromFile(cfg.LocalesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load locales from %s: %w", cfg.LocalesPath, err)
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db, locales: locales}, nil
}

func (e *env) deps() features.Deps {
	moderation := services.NewModerationService(e.db)
	return features.Deps{
		DB:         e.db,
		Config:     e.cfg,
		Locales:    e.locales,
		Users:      services.NewUserService(e.db, e.locales, moderation),
		Moderation: moderation,
		Notifier:   services.NewPushService(e.db, nil),
	}
}

// plugins mirrors the server's feature list.
func (e *env) plugins() []features.Plugin {
	deps := e.deps()
	postsPlugin := posts.New(deps)
	companionsPlugin := companions.New(deps)
	return []features.Plugin{
		postsPlugin,
		companionsPlugin,
		chat.New(deps, companionsPlugin.Service()),
		curators.New(deps, postsPlugin.Service()),
		content.New(deps),
		media.New(deps),
		translate.New(deps, postsPlugin.Service()),
		location.New(deps),
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tripctl",
		Short:         "TripMate maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.Setup()
		},
	}

	root.AddCommand(
		newMigrateCmd(),
		newSeedContentCmd(),
		newCityCodeCmd(),
		newCountryCodeCmd(),
		newWarmCmd(),
		newPurgeLogsCmd(),
		newExpireCompanionsCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
