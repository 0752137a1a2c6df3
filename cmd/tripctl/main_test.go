package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/companions"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/content"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

func useTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewDB(t)
	t.Setenv("LOCALES_PATH", filepath.Join("..", "..", "locales.yaml"))

	prev := openDB
	openDB = func(*config.Config) (*gorm.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = prev })
	return db
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	db := useTestDB(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated")

	assert.True(t, db.Migrator().HasTable(&posts.Post{}))
	assert.True(t, db.Migrator().HasTable(&companions.CompanionRequest{}))
	assert.True(t, db.Migrator().HasTable(&content.Banner{}))
}

func TestSeedContent(t *testing.T) {
	db := useTestDB(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
faqs:
  - language: en
    category: account
    question: How do I sign out?
    answer: Settings, then Sign out.
    sort_order: 1
`), 0o644))

	out, err := run(t, "seed-content", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "1 created, 0 updated")

	out, err = run(t, "seed-content", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "0 created, 1 updated")

	var count int64
	db.Model(&content.FAQ{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCityCode_KnownCity(t *testing.T) {
	useTestDB(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)

	out, err := run(t, "citycode", "서울", "--country", "KR")
	require.NoError(t, err)
	assert.Contains(t, out, "SEL\ttable")

	_, err = run(t, "citycode")
	assert.Error(t, err, "place argument is required")
}

func TestWarm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out, err := run(t, "warm", srv.URL+"/a.jpg", srv.URL+"/b.jpg")
	require.NoError(t, err)
	assert.Contains(t, out, "ok\t200\t"+srv.URL+"/a.jpg")

	out, err = run(t, "warm", srv.URL+"/a.jpg", srv.URL+"/missing.jpg")
	assert.EqualError(t, err, "1 of 2 urls failed")
	assert.Contains(t, out, "fail\tstatus 404\t"+srv.URL+"/missing.jpg")
}

func TestPurgeLogs(t *testing.T) {
	db := useTestDB(t)
	require.NoError(t, db.Create(&models.SystemLog{ID: uuid.New(), Timestamp: time.Now().AddDate(0, 0, -40), Level: "ERROR"}).Error)
	require.NoError(t, db.Create(&models.SystemLog{ID: uuid.New(), Timestamp: time.Now(), Level: "ERROR"}).Error)

	out, err := run(t, "purge-logs", "--days", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 log rows")

	var count int64
	db.Model(&models.SystemLog{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestExpireCompanions(t *testing.T) {
	db := useTestDB(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)

	a := testutil.CreateUser(t, db)
	b := testutil.CreateUser(t, db)
	require.NoError(t, db.Create(&companions.CompanionRequest{
		ID: uuid.New(), SenderID: a.ID, ReceiverID: b.ID,
		MeetAt: time.Now().Add(-time.Hour), Status: companions.StatusPending,
	}).Error)

	out, err := run(t, "expire-companions")
	require.NoError(t, err)
	assert.Contains(t, out, "expired 1 requests")
}
