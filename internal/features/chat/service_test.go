package chat

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/companions"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/featuretest"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

type env struct {
	deps       features.Deps
	notifier   *featuretest.Notifier
	companions *companions.Service
	plugin     *Plugin
	svc        *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tables := append((&companions.Plugin{}).Models(), (&Plugin{}).Models()...)
	deps, notifier := featuretest.Deps(t, tables...)
	comp := companions.New(deps).Service()
	plugin := New(deps, comp)

	// Each call advances a second so message order and read markers are exact.
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	plugin.service.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return &env{deps: deps, notifier: notifier, companions: comp, plugin: plugin, svc: plugin.service}
}

func TestOpenRoom_IdempotentPerPair(t *testing.T) {
	e := newEnv(t)
	a := testutil.CreateUser(t, e.deps.DB)
	b := testutil.CreateUser(t, e.deps.DB)

	first, err := e.svc.OpenRoom(a.ID, b.ID, nil)
	require.NoError(t, err)
	second, err := e.svc.OpenRoom(b.ID, a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	e.deps.DB.Model(&Room{}).Count(&count)
	assert.EqualValues(t, 1, count)

	_, err = e.svc.OpenRoom(a.ID, a.ID, nil)
	assert.ErrorIs(t, err, ErrSelfChat)
	_, err = e.svc.OpenRoom(a.ID, uuid.New(), nil)
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	c := testutil.CreateUser(t, e.deps.DB)
	require.NoError(t, e.deps.Moderation.BlockUser(c.ID, a.ID))
	_, err = e.svc.OpenRoom(a.ID, c.ID, nil)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestOpenRoom_WithCompanionRequest(t *testing.T) {
	e := newEnv(t)
	a := testutil.CreateUser(t, e.deps.DB)
	b := testutil.CreateUser(t, e.deps.DB)
	c := testutil.CreateUser(t, e.deps.DB)

	cr, err := e.companions.Send(a.ID, &companions.SendRequest{ReceiverID: b.ID, MeetAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	_, err = e.svc.OpenRoom(a.ID, c.ID, &cr.ID)
	assert.ErrorIs(t, err, ErrCompanionMismatch)

	plain, err := e.svc.OpenRoom(b.ID, a.ID, nil)
	require.NoError(t, err)
	linked, err := e.svc.OpenRoom(b.ID, a.ID, &cr.ID)
	require.NoError(t, err)
	assert.Equal(t, plain.ID, linked.ID)
	require.NotNil(t, linked.CompanionRequestID)
	assert.Equal(t, cr.ID, *linked.CompanionRequestID)
}

func TestSendMessage_UnreadAndRead(t *testing.T) {
	e := newEnv(t)
	a := testutil.CreateUser(t, e.deps.DB)
	b := testutil.CreateUser(t, e.deps.DB)
	room, err := e.svc.OpenRoom(a.ID, b.ID, nil)
	require.NoError(t, err)

	for _, body := range []string{"안녕하세요!", "내일 10시 광장시장 어때요? 010-1234-5678 으로 연락주세요"} {
		_, err := e.svc.SendMessage(a.ID, room.ID, body)
		require.NoError(t, err, "chat allows contact details")
	}

	rooms, err := e.svc.ListRooms(b.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.EqualValues(t, 2, rooms[0].Unread)
	require.NotNil(t, rooms[0].Other)
	assert.Equal(t, a.ID, rooms[0].Other.ID)
	assert.True(t, strings.HasPrefix(rooms[0].LastMessage, "내일 10시"))

	rooms, err = e.svc.ListRooms(a.ID)
	require.NoError(t, err)
	assert.Zero(t, rooms[0].Unread, "own messages are read")

	require.NoError(t, e.svc.MarkRead(b.ID, room.ID))
	rooms, err = e.svc.ListRooms(b.ID)
	require.NoError(t, err)
	assert.Zero(t, rooms[0].Unread)

	sent := e.notifier.For(b.ID)
	require.Len(t, sent, 2)
	assert.Equal(t, a.Name, sent[0].Title)
	assert.Equal(t, room.ID.String(), sent[0].Data["room_id"])
}

func TestSendMessage_Errors(t *testing.T) {
	e := newEnv(t)
	a := testutil.CreateUser(t, e.deps.DB)
	b := testutil.CreateUser(t, e.deps.DB)
	outsider := testutil.CreateUser(t, e.deps.DB)
	room, err := e.svc.OpenRoom(a.ID, b.ID, nil)
	require.NoError(t, err)

	_, err = e.svc.SendMessage(a.ID, room.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = e.svc.SendMessage(a.ID, room.ID, strings.Repeat("가", MaxMessageLen+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)
	_, err = e.svc.SendMessage(outsider.ID, room.ID, "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = e.svc.SendMessage(a.ID, uuid.New(), "hi")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = e.svc.SendMessage(a.ID, room.ID, "you are an asshole")
	assert.ErrorIs(t, err, services.ErrContentRejected)

	require.NoError(t, e.deps.Moderation.BlockUser(b.ID, a.ID))
	_, err = e.svc.SendMessage(a.ID, room.ID, "hello?")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestMessages_PagesBackwards(t *testing.T) {
	e := newEnv(t)
	a := testutil.CreateUser(t, e.deps.DB)
	b := testutil.CreateUser(t, e.deps.DB)
	room, err := e.svc.OpenRoom(a.ID, b.ID, nil)
	require.NoError(t, err)

	var sent []*Message
	for _, body := range []string{"one", "two", "three", "four"} {
		m, err := e.svc.SendMessage(a.ID, room.ID, body)
		require.NoError(t, err)
		sent = append(sent, m)
	}

	page, err := e.svc.Messages(b.ID, room.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "four", page[0].Body)
	assert.Equal(t, "three", page[1].Body)

	page, err = e.svc.Messages(b.ID, room.ID, &page[1].CreatedAt, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, sent[1].ID, page[0].ID)
	assert.Equal(t, sent[0].ID, page[1].ID)
}

func TestCleanupUser(t *testing.T) {
	e := newEnv(t)
	a := testutil.CreateUser(t, e.deps.DB)
	b := testutil.CreateUser(t, e.deps.DB)
	room, err := e.svc.OpenRoom(a.ID, b.ID, nil)
	require.NoError(t, err)
	_, err = e.svc.SendMessage(a.ID, room.ID, "bye")
	require.NoError(t, err)

	require.NoError(t, e.svc.CleanupUser(e.deps.DB, a.ID))

	var count int64
	e.deps.DB.Model(&Message{}).Count(&count)
	assert.Zero(t, count)
	e.deps.DB.Model(&Room{}).Count(&count)
	assert.Zero(t, count)
}

func TestHandlers(t *testing.T) {
	e := newEnv(t)
	app := featuretest.App(t, e.deps, e.plugin)
	a := testutil.CreateUser(t, e.deps.DB, func(u *models.User) { u.Language = "en" })
	b := testutil.CreateUser(t, e.deps.DB)

	var room Room
	require.Equal(t, http.StatusOK,
		featuretest.Do(t, app, http.MethodPost, "/api/chat/rooms", openRoomRequest{UserID: b.ID}, a, &room))

	base := "/api/chat/rooms/" + room.ID.String()
	assert.Equal(t, http.StatusCreated,
		featuretest.Status(t, app, http.MethodPost, base+"/messages", sendMessageRequest{Body: "hello"}, a))
	assert.Equal(t, http.StatusBadRequest,
		featuretest.Status(t, app, http.MethodPost, base+"/messages", sendMessageRequest{Body: ""}, a))

	var list struct {
		Data struct {
			Rooms    []RoomView `json:"rooms"`
			Messages []Message  `json:"messages"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodGet, "/api/chat/rooms", nil, b, &list))
	require.Len(t, list.Data.Rooms, 1)
	assert.EqualValues(t, 1, list.Data.Rooms[0].Unread)

	require.Equal(t, http.StatusOK, featuretest.Do(t, app, http.MethodGet, base+"/messages", nil, b, &list))
	assert.Len(t, list.Data.Messages, 1)

	assert.Equal(t, http.StatusBadRequest,
		featuretest.Status(t, app, http.MethodGet, base+"/messages?before=yesterday", nil, b))
	assert.Equal(t, http.StatusOK, featuretest.Status(t, app, http.MethodPost, base+"/read", nil, b))

	outsider := testutil.CreateUser(t, e.deps.DB)
	assert.Equal(t, http.StatusForbidden, featuretest.Status(t, app, http.MethodGet, base+"/messages", nil, outsider))
}
