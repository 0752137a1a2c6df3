package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/featuretest"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
)

const (
	adminToken    = "admin-token-for-tests"
	webhookSecret = "bunny-hook"
)

func newServer(t *testing.T) *fiber.App {
	t.Helper()

	deps, _ := featuretest.Deps(t)
	deps.Config.AdminToken = adminToken

	postsPlugin := posts.New(deps)
	require.NoError(t, database.MigrateModels(deps.DB, postsPlugin.Models()))

	push := services.NewPushService(deps.DB, nil)
	remote := handlers.NewRemoteConfigHandler(deps.DB, deps.Locales)
	require.NoError(t, remote.SeedDefaults())

	h := Handlers{
		Auth:         handlers.NewAuthHandler(services.NewAuthService(deps.DB, deps.Config, nil)),
		Profile:      handlers.NewProfileHandler(deps.Users, push, deps.Moderation),
		Moderation:   handlers.NewModerationHandler(deps.Moderation),
		Health:       handlers.NewHealthHandler(deps.DB, map[string]bool{"push": push.Enabled()}),
		Legal:        handlers.NewLegalHandler(),
		RemoteConfig: remote,
		Locale:       handlers.NewLocaleHandler(deps.Locales),
		Webhook:      handlers.NewWebhookHandler(webhookSecret, postsPlugin.Service()),
	}

	app := fiber.New()
	app.Use(middleware.ClientContext(deps.Locales))
	Setup(app, deps.Config, deps.DB, h, []features.Plugin{postsPlugin})
	return app
}

func send(t *testing.T, app *fiber.App, req *http.Request, out interface{}) int {
	t.Helper()
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

func TestPublicRoutes(t *testing.T) {
	app := newServer(t)

	var health dto.HealthResponse
	assert.Equal(t, fiber.StatusOK, featuretest.Do(t, app, fiber.MethodGet, "/api/health", nil, nil, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, map[string]bool{"push": false}, health.Features)

	var cfg map[string]interface{}
	assert.Equal(t, fiber.StatusOK, featuretest.Do(t, app, fiber.MethodGet, "/api/config", nil, nil, &cfg))
	assert.Equal(t, false, cfg["maintenance_mode"])
	assert.Equal(t, "ko", cfg["default_language"])

	req := httptest.NewRequest(fiber.MethodGet, "/api/languages", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	var langs struct {
		Default string `json:"default"`
		Current string `json:"current"`
	}
	assert.Equal(t, fiber.StatusOK, send(t, app, req, &langs))
	assert.Equal(t, "ko", langs.Default)
	assert.Equal(t, "en", langs.Current)

	assert.Equal(t, fiber.StatusOK, featuretest.Status(t, app, fiber.MethodGet, "/api/legal/privacy", nil, nil))
	assert.Equal(t, fiber.StatusOK, featuretest.Status(t, app, fiber.MethodGet, "/api/posts", nil, nil))
}

func TestAuthFlow(t *testing.T) {
	app := newServer(t)

	var auth dto.AuthResponse
	status := featuretest.Do(t, app, fiber.MethodPost, "/api/auth/register", dto.RegisterRequest{
		Email: "mina@example.com", Password: "correct-horse", Name: "Mina", AgreeTerms: true,
	}, nil, &auth)
	require.Equal(t, fiber.StatusCreated, status)
	require.NotEmpty(t, auth.AccessToken)

	assert.Equal(t, fiber.StatusUnauthorized, featuretest.Status(t, app, fiber.MethodGet, "/api/me", nil, nil))

	req := httptest.NewRequest(fiber.MethodGet, "/api/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+auth.AccessToken)
	var me dto.UserResponse
	assert.Equal(t, fiber.StatusOK, send(t, app, req, &me))
	assert.Equal(t, "mina@example.com", me.Email)

	var providers struct {
		Providers []string `json:"providers"`
	}
	assert.Equal(t, fiber.StatusOK, featuretest.Do(t, app, fiber.MethodGet, "/api/auth/providers", nil, nil, &providers))
	assert.Equal(t, []string{services.ProviderEmail}, providers.Providers)
}

func TestAdminRoutes(t *testing.T) {
	app := newServer(t)

	body := `{"value":"true","type":"bool"}`
	req := httptest.NewRequest(fiber.MethodPut, "/api/admin/config/maintenance_mode", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusUnauthorized, send(t, app, req, nil))

	req = httptest.NewRequest(fiber.MethodPut, "/api/admin/config/maintenance_mode", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Admin-Token", adminToken)
	assert.Equal(t, fiber.StatusOK, send(t, app, req, nil))

	var cfg map[string]interface{}
	featuretest.Do(t, app, fiber.MethodGet, "/api/config", nil, nil, &cfg)
	assert.Equal(t, true, cfg["maintenance_mode"])
}

func TestBunnyWebhook(t *testing.T) {
	app := newServer(t)

	payload := `{"VideoLibraryId":1,"VideoGuid":"guid-1","Status":3}`

	req := httptest.NewRequest(fiber.MethodPost, "/api/webhooks/bunny", strings.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Webhook-Secret", "wrong")
	assert.Equal(t, fiber.StatusUnauthorized, send(t, app, req, nil))

	req = httptest.NewRequest(fiber.MethodPost, "/api/webhooks/bunny?secret="+webhookSecret, strings.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	var out struct {
		Received bool  `json:"received"`
		Updated  int64 `json:"updated"`
	}
	assert.Equal(t, fiber.StatusOK, send(t, app, req, &out))
	assert.True(t, out.Received)
	assert.Zero(t, out.Updated)
}
