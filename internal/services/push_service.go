package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidDeviceToken = errors.New("device token is required")

const pushTimeout = 10 * time.Second

type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Notifier delivers a push notification to every device of a user.
// Delivery is best effort and never fails the caller's request.
type Notifier interface {
	Notify(userID uuid.UUID, n Notification)
}

type MulticastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type PushService struct {
	db     *gorm.DB
	sender MulticastSender
	wg     sync.WaitGroup
}

// NewPushService returns a service that stores device tokens. A nil sender
// keeps token bookkeeping but skips delivery.
func NewPushService(db *gorm.DB, sender MulticastSender) *PushService {
	return &PushService{db: db, sender: sender}
}

func (s *PushService) Enabled() bool {
	return s.sender != nil
}

func (s *PushService) RegisterToken(userID uuid.UUID, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidDeviceToken
	}

	record := models.DeviceToken{
		ID:       uuid.New(),
		UserID:   userID,
		Token:    token,
		Platform: platform,
	}
	// A token moves with the device, so a re-registration reassigns it.
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(&record).Error
}

func (s *PushService) RemoveToken(userID uuid.UUID, token string) error {
	return s.db.Where("user_id = ? AND token = ?", userID, token).Delete(&models.DeviceToken{}).Error
}

func (s *PushService) Notify(userID uuid.UUID, n Notification) {
	if s.sender == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := s.Deliver(ctx, userID, n); err != nil {
			slog.Error("push delivery failed", "user_id", userID, "error", err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (s *PushService) Wait() {
	s.wg.Wait()
}

// Deliver sends n to the user's devices and prunes tokens FCM reports as
// unregistered.
func (s *PushService) Deliver(ctx context.Context, userID uuid.UUID, n Notification) error {
	if s.sender == nil {
		return nil
	}

	var tokens []string
	if err := s.db.Model(&models.DeviceToken{}).Where("user_id = ?", userID).Pluck("token", &tokens).Error; err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	resp, err := s.sender.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	})
	if err != nil {
		return err
	}

	var stale []string
	for i, r := range resp.Responses {
		if r != nil && !r.Success && messaging.IsUnregistered(r.Error) && i < len(tokens) {
			stale = append(stale, tokens[i])
		}
	}
	if len(stale) > 0 {
		if err := s.db.Where("token IN ?", stale).Delete(&models.DeviceToken{}).Error; err != nil {
			slog.Warn("failed to prune device tokens", "count", len(stale), "error", err)
		}
	}
	return nil
}
