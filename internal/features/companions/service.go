package companions

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxMessageLen = 1000

var (
	ErrRequestNotFound = errors.New("companion request not found")
	ErrSelfRequest     = errors.New("cannot send a companion request to yourself")
	ErrBlocked         = errors.New("cannot send a companion request to this user")
	ErrMeetInPast      = errors.New("meeting time must be in the future")
	ErrDuplicate       = errors.New("a pending request to this user already exists")
	ErrNotReceiver     = errors.New("only the receiver can answer this request")
	ErrNotSender       = errors.New("only the sender can cancel this request")
	ErrNotPending      = errors.New("request is no longer pending")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrMessageTooLong  = errors.New("message is too long")
)

type SendRequest struct {
	ReceiverID uuid.UUID  `json:"receiver_id"`
	PostID     *uuid.UUID `json:"post_id"`
	MeetAt     time.Time  `json:"meet_at"`
	Place      string     `json:"place"`
	Message    string     `json:"message"`
}

// RequestView is a request with both participants' public profiles.
type RequestView struct {
	CompanionRequest
	Sender   *dto.PublicProfile `json:"sender,omitempty"`
	Receiver *dto.PublicProfile `json:"receiver,omitempty"`
}

type Service struct {
	db         *gorm.DB
	moderation *services.ModerationService
	users      *services.UserService
	notifier   services.Notifier
	now        func() time.Time
}

func NewService(db *gorm.DB, moderation *services.ModerationService, users *services.UserService, notifier services.Notifier) *Service {
	return &Service{db: db, moderation: moderation, users: users, notifier: notifier, now: time.Now}
}

func (s *Service) Send(senderID uuid.UUID, req *SendRequest) (*CompanionRequest, error) {
	if req.ReceiverID == senderID {
		return nil, ErrSelfRequest
	}
	if !req.MeetAt.After(s.now()) {
		return nil, ErrMeetInPast
	}
	message := strings.TrimSpace(req.Message)
	if len([]rune(message)) > maxMessageLen {
		return nil, ErrMessageTooLong
	}
	if ok, reason := s.moderation.FilterContent(message + " " + req.Place); !ok {
		return nil, services.Rejected(reason)
	}

	var receiver models.User
	if err := s.db.First(&receiver, "id = ?", req.ReceiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, err
	}

	blocked, err := s.moderation.IsBlockedEither(senderID, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}

	dup := s.db.Model(&CompanionRequest{}).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, req.ReceiverID, StatusPending)
	if req.PostID != nil {
		dup = dup.Where("post_id = ?", *req.PostID)
	} else {
		dup = dup.Where("post_id IS NULL")
	}
	var count int64
	if err := dup.Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicate
	}

	cr := &CompanionRequest{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		PostID:     req.PostID,
		MeetAt:     req.MeetAt.UTC(),
		Place:      strings.TrimSpace(req.Place),
		Message:    message,
		Status:     StatusPending,
	}
	if err := s.db.Create(cr).Error; err != nil {
		return nil, fmt.Errorf("failed to create companion request: %w", err)
	}

	s.notifier.Notify(receiver.ID, notification(receiver.Language, kindReceived, cr))
	return cr, nil
}

func (s *Service) Accept(userID, requestID uuid.UUID) (*CompanionRequest, error) {
	cr, err := s.answer(userID, requestID, StatusAccepted)
	if err != nil {
		return nil, err
	}

	var sender models.User
	if err := s.db.Select("id", "language").First(&sender, "id = ?", cr.SenderID).Error; err == nil {
		s.notifier.Notify(sender.ID, notification(sender.Language, kindAccepted, cr))
	}
	return cr, nil
}

func (s *Service) Reject(userID, requestID uuid.UUID) (*CompanionRequest, error) {
	return s.answer(userID, requestID, StatusRejected)
}

func (s *Service) answer(userID, requestID uuid.UUID, status string) (*CompanionRequest, error) {
	var cr CompanionRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cr, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if cr.ReceiverID != userID {
			return ErrNotReceiver
		}

		now := s.now()
		res := tx.Model(&CompanionRequest{}).
			Where("id = ? AND status = ?", requestID, StatusPending).
			Updates(map[string]interface{}{"status": status, "responded_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotPending
		}
		cr.Status = status
		cr.RespondedAt = &now

		if status == StatusAccepted {
			for _, id := range []uuid.UUID{cr.SenderID, cr.ReceiverID} {
				if err := services.IncrementUserCounter(tx, id, services.CounterCompanions, 1); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

// Cancel withdraws a pending request the user sent.
func (s *Service) Cancel(userID, requestID uuid.UUID) error {
	var cr CompanionRequest
	if err := s.db.First(&cr, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	if cr.SenderID != userID {
		return ErrNotSender
	}
	if cr.Status != StatusPending {
		return ErrNotPending
	}
	return s.db.Delete(&cr).Error
}

func (s *Service) Get(requestID uuid.UUID) (*CompanionRequest, error) {
	var cr CompanionRequest
	if err := s.db.First(&cr, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &cr, nil
}

func (s *Service) ListReceived(userID uuid.UUID, status string, page, limit int) ([]CompanionRequest, int64, error) {
	return s.list("receiver_id", userID, status, page, limit)
}

func (s *Service) ListSent(userID uuid.UUID, status string, page, limit int) ([]CompanionRequest, int64, error) {
	return s.list("sender_id", userID, status, page, limit)
}

func (s *Service) list(column string, userID uuid.UUID, status string, page, limit int) ([]CompanionRequest, int64, error) {
	if status != "" && !slices.Contains(Statuses, status) {
		return nil, 0, ErrInvalidStatus
	}

	query := s.db.Model(&CompanionRequest{}).Where(column+" = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	requests := []CompanionRequest{}
	err := query.Order("meet_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&requests).Error
	return requests, total, err
}

// ExpirePast moves pending and accepted requests whose meeting time has
// passed to past.
func (s *Service) ExpirePast(now time.Time) (int64, error) {
	res := s.db.Model(&CompanionRequest{}).
		Where("status IN ? AND meet_at < ?", []string{StatusPending, StatusAccepted}, now.UTC()).
		Update("status", StatusPast)
	return res.RowsAffected, res.Error
}

// Decorate attaches sender and receiver profiles.
func (s *Service) Decorate(requests []CompanionRequest) ([]RequestView, error) {
	ids := make([]uuid.UUID, 0, len(requests)*2)
	for i := range requests {
		ids = append(ids, requests[i].SenderID, requests[i].ReceiverID)
	}
	profiles, err := s.users.PublicProfiles(ids)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, len(requests))
	for i := range requests {
		views[i] = RequestView{CompanionRequest: requests[i]}
		if p, ok := profiles[requests[i].SenderID]; ok {
			views[i].Sender = &p
		}
		if p, ok := profiles[requests[i].ReceiverID]; ok {
			views[i].Receiver = &p
		}
	}
	return views, nil
}

func (s *Service) CleanupUser(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&CompanionRequest{}).Error
}

// expireLoop runs ExpirePast every interval until done is closed.
func (s *Service) expireLoop(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			n, err := s.ExpirePast(s.now())
			if err != nil {
				slog.Error("failed to expire companion requests", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired companion requests", "count", n)
			}
		}
	}
}
