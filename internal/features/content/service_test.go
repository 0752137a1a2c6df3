package content

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/featuretest"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

func newService(t *testing.T) (*Service, features.Deps) {
	t.Helper()
	deps, _ := featuretest.Deps(t, (&Plugin{}).Models()...)
	return NewService(deps.DB, deps.Locales), deps
}

func TestBanners_WindowAndFallback(t *testing.T) {
	svc, _ := newService(t)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	for _, b := range []*Banner{
		{Language: "ko", Title: "live", ImageURL: "https://cdn/1.jpg", Active: true, SortOrder: 2},
		{Language: "ko", Title: "first", ImageURL: "https://cdn/2.jpg", Active: true, SortOrder: 1, StartsAt: &past},
		{Language: "ko", Title: "inactive", ImageURL: "https://cdn/3.jpg"},
		{Language: "ko", Title: "not yet", ImageURL: "https://cdn/4.jpg", Active: true, StartsAt: &future},
		{Language: "ko", Title: "ended", ImageURL: "https://cdn/5.jpg", Active: true, EndsAt: &past},
		{Language: "en", Title: "english", ImageURL: "https://cdn/6.jpg", Active: true},
	} {
		require.NoError(t, create[Banner](svc, b))
	}

	titles := func(lang string) []string {
		banners, err := svc.Banners(lang)
		require.NoError(t, err)
		out := make([]string, len(banners))
		for i := range banners {
			out[i] = banners[i].Title
		}
		return out
	}

	assert.Equal(t, []string{"first", "live"}, titles("ko"))
	assert.Equal(t, []string{"english"}, titles("en"))
	assert.Equal(t, []string{"first", "live"}, titles("ja"), "no japanese banners falls back to default")
	assert.Equal(t, []string{"first", "live"}, titles("xx"), "unsupported language uses default")
}

func TestFAQsAndNotices(t *testing.T) {
	svc, _ := newService(t)
	require.NoError(t, create[FAQ](svc, &FAQ{Language: "en", Category: "account", Question: "Q1", Answer: "A1"}))
	require.NoError(t, create[FAQ](svc, &FAQ{Language: "en", Category: "payment", Question: "Q2", Answer: "A2"}))

	faqs, err := svc.FAQs("en", "account")
	require.NoError(t, err)
	require.Len(t, faqs, 1)
	assert.Equal(t, "Q1", faqs[0].Question)

	old := time.Now().Add(-48 * time.Hour)
	later := time.Now().Add(48 * time.Hour)
	require.NoError(t, create[Notice](svc, &Notice{Language: "ko", Title: "old", Body: "b", PublishedAt: old}))
	require.NoError(t, create[Notice](svc, &Notice{Language: "ko", Title: "pinned", Body: "b", Pinned: true, PublishedAt: old.Add(-time.Hour)}))
	require.NoError(t, create[Notice](svc, &Notice{Language: "ko", Title: "new", Body: "b"}))
	require.NoError(t, create[Notice](svc, &Notice{Language: "ko", Title: "scheduled", Body: "b", PublishedAt: later}))

	notices, total, err := svc.Notices("ko", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, notices, 3)
	assert.Equal(t, "pinned", notices[0].Title)
	assert.Equal(t, "new", notices[1].Title)
	assert.Equal(t, "old", notices[2].Title)

	got, err := svc.Notice(notices[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "pinned", got.Title)
	_, err = svc.Notice(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUpdateRemove(t *testing.T) {
	svc, _ := newService(t)

	assert.ErrorIs(t, create[Banner](svc, &Banner{Language: "fr", Title: "t", ImageURL: "u"}), ErrUnsupportedLanguage)
	assert.ErrorIs(t, create[Banner](svc, &Banner{Language: "ko", ImageURL: "u"}), ErrTitleRequired)
	assert.ErrorIs(t, create[FAQ](svc, &FAQ{Language: "ko", Question: "q"}), ErrQuestionRequired)
	assert.ErrorIs(t, create[Notice](svc, &Notice{Language: "ko", Title: "t"}), ErrBodyRequired)

	b := &Banner{Language: "ko", Title: "t", ImageURL: "u", Active: true}
	require.NoError(t, create[Banner](svc, b))

	require.NoError(t, update[Banner](svc, b.ID, &Banner{Language: "ko", Title: "renamed", ImageURL: "u2", Active: false}))
	var stored Banner
	require.NoError(t, svc.db.First(&stored, "id = ?", b.ID).Error)
	assert.Equal(t, "renamed", stored.Title)
	assert.False(t, stored.Active, "zero values are written on update")

	assert.ErrorIs(t, update[Banner](svc, uuid.New(), &Banner{Language: "ko", Title: "x", ImageURL: "u"}), ErrNotFound)
	require.NoError(t, remove[Banner](svc, b.ID))
	assert.ErrorIs(t, remove[Banner](svc, b.ID), ErrNotFound)
}

func TestSeed_Idempotent(t *testing.T) {
	svc, _ := newService(t)
	svc.now = func() time.Time { return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC) }
	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
banners:
  - language: ko
    title: 가을 제주
    image_url: https://cdn.tripmate.app/b.jpg
    active: true
faqs:
  - language: en
    category: account
    question: How do I delete my account?
    answer: Settings > Account.
notices:
  - language: ko
    title: 정식 오픈
    body: 오픈했습니다.
    published_at: 2026-09-01T09:00:00+09:00
`), 0o644))

	res, err := svc.Seed(path)
	require.NoError(t, err)
	assert.Equal(t, &SeedResult{Created: 3}, res)

	res, err = svc.Seed(path)
	require.NoError(t, err)
	assert.Equal(t, &SeedResult{Updated: 3}, res)

	notices, _, err := svc.Notices("ko", 1, 10)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.True(t, notices[0].PublishedAt.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, os.WriteFile(path, []byte("banners:\n  - language: fr\n    title: x\n    image_url: y\n"), 0o644))
	_, err = svc.Seed(path)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = svc.Seed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHandlers(t *testing.T) {
	deps, _ := featuretest.Deps(t, (&Plugin{}).Models()...)
	app := featuretest.App(t, deps, New(deps))
	admin := testutil.CreateUser(t, deps.DB, func(u *models.User) { u.Role = models.RoleAdmin })
	reader := testutil.CreateUser(t, deps.DB, func(u *models.User) { u.Language = "en" })

	var created Banner
	require.Equal(t, http.StatusCreated, featuretest.Do(t, app, http.MethodPost, "/api/admin/content/banners",
		Banner{Language: "en", Title: "Hello", ImageURL: "https://cdn/x.jpg", Active: true}, admin, &created))
	assert.NotEqual(t, uuid.Nil, created.ID)

	assert.Equal(t, http.StatusForbidden, featuretest.Status(t, app, http.MethodPost, "/api/admin/content/banners",
		Banner{Language: "en", Title: "Hello", ImageURL: "https://cdn/x.jpg"}, reader))
	assert.Equal(t, http.StatusBadRequest, featuretest.Status(t, app, http.MethodPost, "/api/admin/content/faqs",
		FAQ{Language: "en"}, admin))

	var list struct {
		Data struct {
			Banners []Banner `json:"banners"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodGet, "/api/content/banners", nil, reader, &list))
	assert.Len(t, list.Data.Banners, 1, "profile language en")

	list.Data.Banners = nil
	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodGet, "/api/content/banners?lang=ja", nil, nil, &list))
	assert.Empty(t, list.Data.Banners, "japanese falls back to korean, which has none")

	assert.Equal(t, http.StatusOK,
		featuretest.Status(t, app, http.MethodDelete, "/api/admin/content/banners/"+created.ID.String(), nil, admin))
	assert.Equal(t, http.StatusNotFound,
		featuretest.Status(t, app, http.MethodGet, "/api/content/notices/"+uuid.NewString(), nil, nil))
}
