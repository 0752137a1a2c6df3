package curators

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/featuretest"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

type env struct {
	deps     features.Deps
	notifier *featuretest.Notifier
	posts    *posts.Service
	plugin   *Plugin
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tables := append((&posts.Plugin{}).Models(), (&Plugin{}).Models()...)
	deps, notifier := featuretest.Deps(t, tables...)
	postSvc := posts.New(deps).Service()
	return &env{deps: deps, notifier: notifier, posts: postSvc, plugin: New(deps, postSvc)}
}

func (e *env) curator(t *testing.T) *models.User {
	return testutil.CreateUser(t, e.deps.DB, func(u *models.User) { u.Role = models.RoleCurator })
}

func (e *env) user(t *testing.T, id uuid.UUID) *models.User {
	var u models.User
	require.NoError(t, e.deps.DB.First(&u, "id = ?", id).Error)
	return &u
}

func TestToggleFollow(t *testing.T) {
	e := newEnv(t)
	svc := e.plugin.Service()
	curator := e.curator(t)
	fan := testutil.CreateUser(t, e.deps.DB)

	following, count, err := svc.ToggleFollow(fan.ID, curator.ID)
	require.NoError(t, err)
	assert.True(t, following)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, e.user(t, fan.ID).FollowingCount)
	assert.Len(t, e.notifier.For(curator.ID), 1)

	ok, err := svc.IsFollowing(fan.ID, curator.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	following, count, err = svc.ToggleFollow(fan.ID, curator.ID)
	require.NoError(t, err)
	assert.False(t, following)
	assert.Zero(t, count)
	assert.Zero(t, e.user(t, fan.ID).FollowingCount)

	require.NoError(t, svc.Unfollow(fan.ID, curator.ID), "unfollowing twice is a no-op")
	assert.Zero(t, e.user(t, curator.ID).FollowerCount)
}

func TestToggleFollow_Errors(t *testing.T) {
	e := newEnv(t)
	svc := e.plugin.Service()
	curator := e.curator(t)
	regular := testutil.CreateUser(t, e.deps.DB)

	_, _, err := svc.ToggleFollow(curator.ID, curator.ID)
	assert.ErrorIs(t, err, ErrSelfFollow)

	_, _, err = svc.ToggleFollow(curator.ID, regular.ID)
	assert.ErrorIs(t, err, ErrNotCurator)

	_, _, err = svc.ToggleFollow(regular.ID, uuid.New())
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestListCuratorsAndFeed(t *testing.T) {
	e := newEnv(t)
	svc := e.plugin.Service()
	popular := e.curator(t)
	quiet := e.curator(t)
	fan := testutil.CreateUser(t, e.deps.DB)
	other := testutil.CreateUser(t, e.deps.DB)

	for _, u := range []*models.User{fan, other} {
		_, _, err := svc.ToggleFollow(u.ID, popular.ID)
		require.NoError(t, err)
	}

	list, total, err := svc.ListCurators(fan.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, popular.ID, list[0].ID)
	assert.True(t, list[0].Following)
	assert.Equal(t, quiet.ID, list[1].ID)
	assert.False(t, list[1].Following)

	picked, err := e.posts.Create(popular.ID, &posts.CreatePostRequest{Content: "숨은 골목 맛집"})
	require.NoError(t, err)
	_, err = e.posts.Create(quiet.ID, &posts.CreatePostRequest{Content: "not followed"})
	require.NoError(t, err)

	feed, total, err := svc.CuratorFeed(fan.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, feed, 1)
	assert.Equal(t, picked.ID, feed[0].ID)

	feed, _, err = svc.CuratorFeed(quiet.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, feed)

	followers, total, err := svc.Followers(popular.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, followers, 2)

	following, _, err := svc.Following(fan.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.True(t, following[0].IsCurator)
}

func TestCleanupUser(t *testing.T) {
	e := newEnv(t)
	svc := e.plugin.Service()
	curator := e.curator(t)
	leaving := testutil.CreateUser(t, e.deps.DB)
	_, _, err := svc.ToggleFollow(leaving.ID, curator.ID)
	require.NoError(t, err)

	require.NoError(t, svc.CleanupUser(e.deps.DB, leaving.ID))
	assert.Zero(t, e.user(t, curator.ID).FollowerCount)

	var count int64
	e.deps.DB.Model(&Follow{}).Count(&count)
	assert.Zero(t, count)
}

func TestHandlers(t *testing.T) {
	e := newEnv(t)
	app := featuretest.App(t, e.deps, e.plugin)
	curator := e.curator(t)
	fan := testutil.CreateUser(t, e.deps.DB)
	admin := testutil.CreateUser(t, e.deps.DB, func(u *models.User) { u.Role = models.RoleAdmin })

	var resp map[string]interface{}
	require.Equal(t, http.StatusOK,
		featuretest.Do(t, app, http.MethodPost, "/api/curators/"+curator.ID.String()+"/follow", nil, fan, &resp))
	assert.Equal(t, true, resp["following"])

	require.Equal(t, http.StatusOK,
		featuretest.Do(t, app, http.MethodGet, "/api/curators/"+curator.ID.String()+"/follow", nil, fan, &resp))
	assert.Equal(t, true, resp["following"])

	assert.Equal(t, http.StatusOK, featuretest.Status(t, app, http.MethodGet, "/api/curators/me/followers", nil, curator))
	assert.Equal(t, http.StatusForbidden, featuretest.Status(t, app, http.MethodGet, "/api/curators/me/followers", nil, fan))
	assert.Equal(t, http.StatusOK, featuretest.Status(t, app, http.MethodGet, "/api/curators", nil, nil))
	assert.Equal(t, http.StatusOK, featuretest.Status(t, app, http.MethodGet, "/api/feed/curators", nil, fan))
	assert.Equal(t, http.StatusBadRequest,
		featuretest.Status(t, app, http.MethodPost, "/api/curators/"+fan.ID.String()+"/follow", nil, curator))

	assert.Equal(t, http.StatusForbidden,
		featuretest.Status(t, app, http.MethodPut, "/api/admin/curators/"+fan.ID.String(), nil, fan))
	require.Equal(t, http.StatusOK,
		featuretest.Status(t, app, http.MethodPut, "/api/admin/curators/"+fan.ID.String(), nil, admin))
	assert.True(t, e.user(t, fan.ID).IsCurator())
	assert.Equal(t, http.StatusNotFound,
		featuretest.Status(t, app, http.MethodDelete, "/api/admin/curators/"+admin.ID.String(), nil, admin),
		"admins keep their role")
}
