package companions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/featuretest"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

func newService(t *testing.T) (*Service, features.Deps, *featuretest.Notifier) {
	t.Helper()
	deps, notifier := featuretest.Deps(t, (&Plugin{}).Models()...)
	return NewService(deps.DB, deps.Moderation, deps.Users, deps.Notifier), deps, notifier
}

func tomorrow() time.Time {
	return time.Now().Add(24 * time.Hour)
}

func TestSend(t *testing.T) {
	svc, deps, notifier := newService(t)
	sender := testutil.CreateUser(t, deps.DB)
	receiver := testutil.CreateUser(t, deps.DB, func(u *models.User) { u.Language = "en" })

	cr, err := svc.Send(sender.ID, &SendRequest{
		ReceiverID: receiver.ID,
		MeetAt:     tomorrow(),
		Place:      "광안리 해수욕장",
		Message:    "  같이 불꽃축제 보러 가요  ",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, cr.Status)
	assert.Equal(t, "같이 불꽃축제 보러 가요", cr.Message)

	sent := notifier.For(receiver.ID)
	require.Len(t, sent, 1)
	assert.Equal(t, "New companion request", sent[0].Title)
	assert.Equal(t, cr.ID.String(), sent[0].Data["request_id"])

	_, err = svc.Send(sender.ID, &SendRequest{ReceiverID: receiver.ID, MeetAt: tomorrow()})
	assert.ErrorIs(t, err, ErrDuplicate, "one pending request per pair")

	postID := uuid.New()
	_, err = svc.Send(sender.ID, &SendRequest{ReceiverID: receiver.ID, PostID: &postID, MeetAt: tomorrow()})
	assert.NoError(t, err, "a request about a post is a different request")
}

func TestSend_Validation(t *testing.T) {
	svc, deps, _ := newService(t)
	sender := testutil.CreateUser(t, deps.DB)
	receiver := testutil.CreateUser(t, deps.DB)
	blocker := testutil.CreateUser(t, deps.DB)
	require.NoError(t, deps.Moderation.BlockUser(blocker.ID, sender.ID))

	tests := []struct {
		name string
		req  SendRequest
		want error
	}{
		{"self", SendRequest{ReceiverID: sender.ID, MeetAt: tomorrow()}, ErrSelfRequest},
		{"past meeting", SendRequest{ReceiverID: receiver.ID, MeetAt: time.Now().Add(-time.Hour)}, ErrMeetInPast},
		{"unknown receiver", SendRequest{ReceiverID: uuid.New(), MeetAt: tomorrow()}, services.ErrUserNotFound},
		{"blocked by receiver", SendRequest{ReceiverID: blocker.ID, MeetAt: tomorrow()}, ErrBlocked},
		{"contact info", SendRequest{ReceiverID: receiver.ID, MeetAt: tomorrow(), Message: "카톡 010-1234-5678"}, services.ErrContentRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(sender.ID, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAcceptReject(t *testing.T) {
	svc, deps, notifier := newService(t)
	sender := testutil.CreateUser(t, deps.DB)
	receiver := testutil.CreateUser(t, deps.DB)

	cr, err := svc.Send(sender.ID, &SendRequest{ReceiverID: receiver.ID, MeetAt: tomorrow()})
	require.NoError(t, err)

	_, err = svc.Accept(sender.ID, cr.ID)
	assert.ErrorIs(t, err, ErrNotReceiver)

	accepted, err := svc.Accept(receiver.ID, cr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.RespondedAt)

	sent := notifier.For(sender.ID)
	require.Len(t, sent, 1)
	assert.Equal(t, "동행 요청 수락", sent[0].Title)

	for _, id := range []uuid.UUID{sender.ID, receiver.ID} {
		var u models.User
		require.NoError(t, deps.DB.First(&u, "id = ?", id).Error)
		assert.Equal(t, 1, u.CompanionCount)
	}

	_, err = svc.Reject(receiver.ID, cr.ID)
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = svc.Accept(receiver.ID, uuid.New())
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestCancel(t *testing.T) {
	svc, deps, _ := newService(t)
	sender := testutil.CreateUser(t, deps.DB)
	receiver := testutil.CreateUser(t, deps.DB)

	cr, err := svc.Send(sender.ID, &SendRequest{ReceiverID: receiver.ID, MeetAt: tomorrow()})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Cancel(receiver.ID, cr.ID), ErrNotSender)
	require.NoError(t, svc.Cancel(sender.ID, cr.ID))

	_, err = svc.Get(cr.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	rejected, err := svc.Send(sender.ID, &SendRequest{ReceiverID: receiver.ID, MeetAt: tomorrow()})
	require.NoError(t, err)
	_, err = svc.Reject(receiver.ID, rejected.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Cancel(sender.ID, rejected.ID), ErrNotPending)
}

func TestLists(t *testing.T) {
	svc, deps, _ := newService(t)
	me := testutil.CreateUser(t, deps.DB)
	a := testutil.CreateUser(t, deps.DB)
	b := testutil.CreateUser(t, deps.DB)

	_, err := svc.Send(a.ID, &SendRequest{ReceiverID: me.ID, MeetAt: tomorrow()})
	require.NoError(t, err)
	fromB, err := svc.Send(b.ID, &SendRequest{ReceiverID: me.ID, MeetAt: tomorrow().Add(time.Hour)})
	require.NoError(t, err)
	_, err = svc.Accept(me.ID, fromB.ID)
	require.NoError(t, err)

	received, total, err := svc.ListReceived(me.ID, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, received, 2)

	pending, _, err := svc.ListReceived(me.ID, StatusPending, 1, 20)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].SenderID)

	sent, _, err := svc.ListSent(b.ID, StatusAccepted, 1, 20)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	_, _, err = svc.ListSent(b.ID, "maybe", 1, 20)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	views, err := svc.Decorate(pending)
	require.NoError(t, err)
	require.NotNil(t, views[0].Sender)
	assert.Equal(t, a.Name, views[0].Sender.Name)
}

func TestExpirePast(t *testing.T) {
	svc, deps, _ := newService(t)
	sender := testutil.CreateUser(t, deps.DB)
	receiver := testutil.CreateUser(t, deps.DB)

	soon, err := svc.Send(sender.ID, &SendRequest{ReceiverID: receiver.ID, MeetAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	postID := uuid.New()
	later, err := svc.Send(sender.ID, &SendRequest{ReceiverID: receiver.ID, PostID: &postID, MeetAt: time.Now().Add(72 * time.Hour)})
	require.NoError(t, err)

	n, err := svc.ExpirePast(time.Now().Add(2 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := svc.Get(soon.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPast, got.Status)
	got, err = svc.Get(later.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestExpireLoop_StopsOnDone(t *testing.T) {
	defer goleak.VerifyNone(t, testutil.LeakOptions()...)

	svc, deps, _ := newService(t)
	sender := testutil.CreateUser(t, deps.DB)
	receiver := testutil.CreateUser(t, deps.DB)
	cr, err := svc.Send(sender.ID, &SendRequest{ReceiverID: receiver.ID, MeetAt: time.Now().Add(time.Minute)})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		svc.expireLoop(10*time.Millisecond, done)
	}()

	require.Eventually(t, func() bool {
		got, err := svc.Get(cr.ID)
		return err == nil && got.Status == StatusPast
	}, 2*time.Second, 10*time.Millisecond)

	close(done)
	<-stopped
}

func TestCleanupUser(t *testing.T) {
	svc, deps, _ := newService(t)
	leaving := testutil.CreateUser(t, deps.DB)
	other := testutil.CreateUser(t, deps.DB)
	third := testutil.CreateUser(t, deps.DB)

	_, err := svc.Send(leaving.ID, &SendRequest{ReceiverID: other.ID, MeetAt: tomorrow()})
	require.NoError(t, err)
	_, err = svc.Send(other.ID, &SendRequest{ReceiverID: leaving.ID, MeetAt: tomorrow()})
	require.NoError(t, err)
	_, err = svc.Send(third.ID, &SendRequest{ReceiverID: other.ID, MeetAt: tomorrow()})
	require.NoError(t, err)

	require.NoError(t, svc.CleanupUser(deps.DB, leaving.ID))

	var count int64
	deps.DB.Model(&CompanionRequest{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
