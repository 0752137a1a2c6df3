package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []*messaging.MulticastMessage
	err      error
}

func (f *fakeSender) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.messages = append(f.messages, m)
	resp := &messaging.BatchResponse{SuccessCount: len(m.Tokens)}
	for range m.Tokens {
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: uuid.NewString()})
	}
	return resp, nil
}

func TestRegisterToken_Reassigns(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPushService(db, nil)
	a := testutil.CreateUser(t, db)
	b := testutil.CreateUser(t, db)

	assert.ErrorIs(t, svc.RegisterToken(a.ID, " ", "ios"), ErrInvalidDeviceToken)
	require.NoError(t, svc.RegisterToken(a.ID, "fcm-token", "ios"))
	require.NoError(t, svc.RegisterToken(b.ID, "fcm-token", "android"))

	var tokens []models.DeviceToken
	require.NoError(t, db.Find(&tokens).Error)
	require.Len(t, tokens, 1)
	assert.Equal(t, b.ID, tokens[0].UserID)
	assert.Equal(t, "android", tokens[0].Platform)

	require.NoError(t, svc.RemoveToken(b.ID, "fcm-token"))
	var count int64
	db.Model(&models.DeviceToken{}).Count(&count)
	assert.Zero(t, count)
}

func TestNotify_SendsToAllDevices(t *testing.T) {
	defer goleak.VerifyNone(t, testutil.LeakOptions()...)

	db := testutil.NewDB(t)
	sender := &fakeSender{}
	svc := NewPushService(db, sender)
	user := testutil.CreateUser(t, db)
	require.NoError(t, svc.RegisterToken(user.ID, "t1", "ios"))
	require.NoError(t, svc.RegisterToken(user.ID, "t2", "android"))

	svc.Notify(user.ID, Notification{Title: "동행 요청", Body: "새 요청이 도착했어요", Data: map[string]string{"type": "companion"}})
	svc.Wait()

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.ElementsMatch(t, []string{"t1", "t2"}, msg.Tokens)
	assert.Equal(t, "동행 요청", msg.Notification.Title)
	assert.Equal(t, "companion", msg.Data["type"])
}

func TestDeliver(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db)

	noop := NewPushService(db, nil)
	assert.False(t, noop.Enabled())
	assert.NoError(t, noop.Deliver(context.Background(), user.ID, Notification{}))

	sender := &fakeSender{}
	svc := NewPushService(db, sender)
	require.NoError(t, svc.Deliver(context.Background(), user.ID, Notification{Title: "x"}))
	assert.Empty(t, sender.messages, "no devices, nothing sent")

	require.NoError(t, svc.RegisterToken(user.ID, "t1", "web"))
	sender.err = errors.New("fcm unavailable")
	assert.Error(t, svc.Deliver(context.Background(), user.ID, Notification{Title: "x"}))
}
