// Package featuretest builds feature plugins against a throwaway database
// and drives them through fiber.
package featuretest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

// Notifier records notifications instead of sending them.
type Notifier struct {
	mu   sync.Mutex
	sent map[uuid.UUID][]services.Notification
}

func (n *Notifier) Notify(userID uuid.UUID, notif services.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[uuid.UUID][]services.Notification{}
	}
	n.sent[userID] = append(n.sent[userID], notif)
}

// For returns what userID was sent so far.
func (n *Notifier) For(userID uuid.UUID) []services.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]services.Notification(nil), n.sent[userID]...)
}

// Deps wires the core services over a fresh database with models migrated.
func Deps(t *testing.T, tables ...interface{}) (features.Deps, *Notifier) {
	t.Helper()

	db := testutil.NewDB(t, tables...)
	locales, err := locale.NewRegistry("ko", "ko", "en", "ja")
	require.NoError(t, err)

	mod := services.NewModerationService(db)
	notifier := &Notifier{}
	return features.Deps{
		DB:         db,
		Config:     testutil.Config(),
		Locales:    locales,
		Users:      services.NewUserService(db, locales, mod),
		Moderation: mod,
		Notifier:   notifier,
	}, notifier
}

// App mounts plugin under /api with the same guards the server uses.
func App(t *testing.T, deps features.Deps, plugin features.Plugin) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(middleware.ClientContext(deps.Locales))
	api := app.Group("/api")
	plugin.RegisterRoutes(api, features.Guards{
		Auth:     middleware.JWTProtected(deps.Config),
		Optional: middleware.OptionalJWT(deps.Config),
		Admin:    middleware.AdminRequired(deps.DB, deps.Config),
		Curator:  middleware.CuratorRequired(deps.DB),
	})
	if ap, ok := plugin.(features.AdminPlugin); ok {
		ap.RegisterAdminRoutes(api.Group("/admin", middleware.OptionalJWT(deps.Config), middleware.AdminRequired(deps.DB, deps.Config)))
	}
	return app
}

// Do sends a JSON request as user (nil for anonymous) and decodes the JSON
// response into out when out is non-nil.
func Do(t *testing.T, app *fiber.App, method, target string, body interface{}, user *models.User, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if user != nil {
		req.Header.Set(fiber.HeaderAuthorization, testutil.Bearer(t, user))
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

// Status is Do without a decoded body.
func Status(t *testing.T, app *fiber.App, method, target string, body interface{}, user *models.User) int {
	t.Helper()
	return Do(t, app, method, target, body, user, nil)
}
