package posts

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/featuretest"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

func TestHandlers(t *testing.T) {
	deps, _ := featuretest.Deps(t, (&Plugin{}).Models()...)
	app := featuretest.App(t, deps, New(deps))
	author := testutil.CreateUser(t, deps.DB)
	fan := testutil.CreateUser(t, deps.DB, func(u *models.User) { u.Language = "en" })

	var created Post
	status := featuretest.Do(t, app, http.MethodPost, "/api/posts", CreatePostRequest{Content: "부산 돼지국밥"}, author, &created)
	require.Equal(t, http.StatusCreated, status)

	assert.Equal(t, http.StatusUnauthorized,
		featuretest.Status(t, app, http.MethodPost, "/api/posts", CreatePostRequest{Content: "x"}, nil))

	var rejected dto.ErrorResponse
	status = featuretest.Do(t, app, http.MethodPost, "/api/posts", CreatePostRequest{Content: "this place is shit"}, fan, &rejected)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Your text contains inappropriate language.", rejected.Message)

	var like map[string]interface{}
	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodPost, "/api/posts/"+created.ID.String()+"/like", nil, fan, &like))
	assert.Equal(t, true, like["liked"])
	assert.EqualValues(t, 1, like["like_count"])

	var view PostView
	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodGet, "/api/posts/"+created.ID.String(), nil, fan, &view))
	assert.True(t, view.Liked)
	require.NotNil(t, view.Author)
	assert.Equal(t, author.ID, view.Author.ID)

	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodGet, "/api/posts/"+created.ID.String(), nil, nil, &view))
	assert.False(t, view.Liked, "anonymous viewer")

	var feed struct {
		Data struct {
			Posts      []PostView             `json:"posts"`
			Pagination map[string]interface{} `json:"pagination"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodGet, "/api/posts?limit=5", nil, nil, &feed))
	assert.Len(t, feed.Data.Posts, 1)
	assert.EqualValues(t, 5, feed.Data.Pagination["limit"])

	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodPost, "/api/posts/batch",
		batchRequest{IDs: []string{created.ID.String(), "not-a-uuid", "00000000-0000-0000-0000-000000000001"}}, nil, &feed))
	assert.Len(t, feed.Data.Posts, 1)

	assert.Equal(t, http.StatusForbidden,
		featuretest.Status(t, app, http.MethodDelete, "/api/posts/"+created.ID.String(), nil, fan))
	assert.Equal(t, http.StatusBadRequest,
		featuretest.Status(t, app, http.MethodGet, "/api/posts/nope", nil, nil))
	assert.Equal(t, http.StatusOK,
		featuretest.Status(t, app, http.MethodDelete, "/api/posts/"+created.ID.String(), nil, author))
	assert.Equal(t, http.StatusNotFound,
		featuretest.Status(t, app, http.MethodGet, "/api/posts/"+created.ID.String(), nil, nil))
}

func TestAdminDelete(t *testing.T) {
	deps, _ := featuretest.Deps(t, (&Plugin{}).Models()...)
	plugin := New(deps)
	app := featuretest.App(t, deps, plugin)
	author := testutil.CreateUser(t, deps.DB)
	admin := testutil.CreateUser(t, deps.DB, func(u *models.User) { u.Role = models.RoleAdmin })

	post, err := plugin.Service().Create(author.ID, &CreatePostRequest{Content: "spam?"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden,
		featuretest.Status(t, app, http.MethodDelete, "/api/admin/posts/"+post.ID.String(), nil, author))
	assert.Equal(t, http.StatusOK,
		featuretest.Status(t, app, http.MethodDelete, "/api/admin/posts/"+post.ID.String(), nil, admin))
}
