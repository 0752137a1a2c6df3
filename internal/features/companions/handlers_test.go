package companions

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/featuretest"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

func TestHandlers(t *testing.T) {
	deps, _ := featuretest.Deps(t, (&Plugin{}).Models()...)
	app := featuretest.App(t, deps, New(deps))
	sender := testutil.CreateUser(t, deps.DB)
	receiver := testutil.CreateUser(t, deps.DB)

	body := SendRequest{ReceiverID: receiver.ID, MeetAt: time.Now().Add(48 * time.Hour), Place: "남산타워"}

	var cr CompanionRequest
	require.Equal(t, http.StatusCreated, featuretest.Do(t, app, http.MethodPost, "/api/companions", body, sender, &cr))
	assert.Equal(t, StatusPending, cr.Status)

	assert.Equal(t, http.StatusConflict, featuretest.Status(t, app, http.MethodPost, "/api/companions", body, sender))

	var list struct {
		Data struct {
			Requests []RequestView `json:"requests"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodGet, "/api/companions/received?status=pending", nil, receiver, &list))
	require.Len(t, list.Data.Requests, 1)
	require.NotNil(t, list.Data.Requests[0].Sender)
	assert.Equal(t, sender.ID, list.Data.Requests[0].Sender.ID)

	assert.Equal(t, http.StatusBadRequest,
		featuretest.Status(t, app, http.MethodGet, "/api/companions/sent?status=unknown", nil, sender))
	assert.Equal(t, http.StatusForbidden,
		featuretest.Status(t, app, http.MethodPost, "/api/companions/"+cr.ID.String()+"/accept", nil, sender))
	assert.Equal(t, http.StatusOK,
		featuretest.Status(t, app, http.MethodPost, "/api/companions/"+cr.ID.String()+"/accept", nil, receiver))
	assert.Equal(t, http.StatusConflict,
		featuretest.Status(t, app, http.MethodDelete, "/api/companions/"+cr.ID.String(), nil, sender))
	assert.Equal(t, http.StatusUnauthorized,
		featuretest.Status(t, app, http.MethodGet, "/api/companions/received", nil, nil))
}
