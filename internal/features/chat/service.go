package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/companions"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxMessageLen  = 2000
	previewLen     = 100
	maxMessagePage = 100
)

var (
	ErrRoomNotFound      = errors.New("chat room not found")
	ErrNotParticipant    = errors.New("not a participant of this room")
	ErrSelfChat          = errors.New("cannot open a chat with yourself")
	ErrBlocked           = errors.New("cannot chat with this user")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrMessageTooLong    = errors.New("message is too long")
	ErrCompanionMismatch = errors.New("companion request does not belong to this pair")
)

type RoomView struct {
	Room
	Other  *dto.PublicProfile `json:"other,omitempty"`
	Unread int64              `json:"unread"`
}

type Service struct {
	db         *gorm.DB
	moderation *services.ModerationService
	users      *services.UserService
	companions *companions.Service
	notifier   services.Notifier
	now        func() time.Time
}

func NewService(db *gorm.DB, moderation *services.ModerationService, users *services.UserService, companionService *companions.Service, notifier services.Notifier) *Service {
	return &Service{
		db:         db,
		moderation: moderation,
		users:      users,
		companions: companionService,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// OpenRoom returns the room between the two users, creating it on first
// use. A companion request, when given, must be between the same users.
func (s *Service) OpenRoom(userID, otherID uuid.UUID, companionRequestID *uuid.UUID) (*Room, error) {
	if userID == otherID {
		return nil, ErrSelfChat
	}

	var other models.User
	if err := s.db.Select("id").First(&other, "id = ?", otherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, err
	}

	blocked, err := s.moderation.IsBlockedEither(userID, otherID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}

	if companionRequestID != nil {
		cr, err := s.companions.Get(*companionRequestID)
		if err != nil {
			return nil, err
		}
		pair := (cr.SenderID == userID && cr.ReceiverID == otherID) || (cr.SenderID == otherID && cr.ReceiverID == userID)
		if !pair {
			return nil, ErrCompanionMismatch
		}
	}

	a, b := orderPair(userID, otherID)
	room, err := s.findPair(a, b)
	if err == nil {
		if companionRequestID != nil && room.CompanionRequestID == nil {
			room.CompanionRequestID = companionRequestID
			if err := s.db.Model(room).Update("companion_request_id", companionRequestID).Error; err != nil {
				return nil, err
			}
		}
		return room, nil
	}
	if !errors.Is(err, ErrRoomNotFound) {
		return nil, err
	}

	room = &Room{ID: uuid.New(), UserAID: a, UserBID: b, CompanionRequestID: companionRequestID, CreatedAt: s.now()}
	if err := s.db.Create(room).Error; err != nil {
		// A concurrent open may have created the same pair.
		if existing, findErr := s.findPair(a, b); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create chat room: %w", err)
	}
	return room, nil
}

func (s *Service) findPair(a, b uuid.UUID) (*Room, error) {
	var room Room
	if err := s.db.First(&room, "user_a_id = ? AND user_b_id = ?", a, b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func orderPair(x, y uuid.UUID) (uuid.UUID, uuid.UUID) {
	if x.String() < y.String() {
		return x, y
	}
	return y, x
}

// ListRooms returns the user's rooms, most recent activity first.
func (s *Service) ListRooms(userID uuid.UUID) ([]RoomView, error) {
	var rooms []Room
	err := s.db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	others := make([]uuid.UUID, len(rooms))
	for i := range rooms {
		others[i] = rooms[i].Other(userID)
	}
	profiles, err := s.users.PublicProfiles(others)
	if err != nil {
		return nil, err
	}

	views := make([]RoomView, len(rooms))
	for i := range rooms {
		views[i] = RoomView{Room: rooms[i]}
		if p, ok := profiles[others[i]]; ok {
			views[i].Other = &p
		}
		if views[i].Unread, err = s.unread(&rooms[i], userID); err != nil {
			return nil, err
		}
	}
	return views, nil
}

func (s *Service) unread(room *Room, userID uuid.UUID) (int64, error) {
	q := s.db.Model(&Message{}).Where("room_id = ? AND sender_id <> ?", room.ID, userID)
	if readAt := room.readAt(userID); readAt != nil {
		q = q.Where("created_at > ?", readAt.UTC())
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (s *Service) room(userID, roomID uuid.UUID) (*Room, error) {
	var room Room
	if err := s.db.First(&room, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !room.Has(userID) {
		return nil, ErrNotParticipant
	}
	return &room, nil
}

// SendMessage stores a message and notifies the other participant. Chat
// allows links and contact details between matched travelers; profanity is
// still refused.
func (s *Service) SendMessage(userID, roomID uuid.UUID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(body)) > MaxMessageLen {
		return nil, ErrMessageTooLong
	}

	room, err := s.room(userID, roomID)
	if err != nil {
		return nil, err
	}
	otherID := room.Other(userID)

	blocked, err := s.moderation.IsBlockedEither(userID, otherID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}
	if ok, reason := s.moderation.Filter(body, services.FilterOptions{AllowURLs: true, AllowContactInfo: true}); !ok {
		return nil, services.Rejected(reason)
	}

	now := s.now()
	msg := &Message{ID: uuid.New(), RoomID: roomID, SenderID: userID, Body: body, CreatedAt: now}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{
			"last_message":    preview(body),
			"last_message_at": now,
		}
		updates[readColumn(room, userID)] = now
		return tx.Model(&Room{}).Where("id = ?", roomID).Updates(updates).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	var sender models.User
	if err := s.db.Select("id", "name").First(&sender, "id = ?", userID).Error; err == nil {
		s.notifier.Notify(otherID, services.Notification{
			Title: sender.Name,
			Body:  preview(body),
			Data:  map[string]string{"type": "chat_message", "room_id": roomID.String()},
		})
	}
	return msg, nil
}

// Messages pages backwards from before (exclusive), newest first.
func (s *Service) Messages(userID, roomID uuid.UUID, before *time.Time, limit int) ([]Message, error) {
	if _, err := s.room(userID, roomID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > maxMessagePage {
		limit = 50
	}

	q := s.db.Where("room_id = ?", roomID)
	if before != nil {
		q = q.Where("created_at < ?", before.UTC())
	}
	messages := []Message{}
	err := q.Order("created_at DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

func (s *Service) MarkRead(userID, roomID uuid.UUID) error {
	room, err := s.room(userID, roomID)
	if err != nil {
		return err
	}
	return s.db.Model(&Room{}).Where("id = ?", roomID).Update(readColumn(room, userID), s.now()).Error
}

func (s *Service) CleanupUser(tx *gorm.DB, userID uuid.UUID) error {
	rooms := tx.Model(&Room{}).Select("id").Where("user_a_id = ? OR user_b_id = ?", userID, userID)
	if err := tx.Where("room_id IN (?)", rooms).Delete(&Message{}).Error; err != nil {
		return err
	}
	return tx.Where("user_a_id = ? OR user_b_id = ?", userID, userID).Delete(&Room{}).Error
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLen {
		return body
	}
	return string(r[:previewLen]) + "…"
}
