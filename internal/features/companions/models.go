package companions

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusPast     = "past"
)

var Statuses = []string{StatusPending, StatusAccepted, StatusRejected, StatusPast}

// CompanionRequest asks another traveler to meet, optionally about a post.
type CompanionRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_companion_pair,priority:1" json:"sender_id"`
	ReceiverID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_companion_pair,priority:2;index" json:"receiver_id"`
	PostID      *uuid.UUID `gorm:"type:uuid;index" json:"post_id,omitempty"`
	MeetAt      time.Time  `gorm:"not null;index" json:"meet_at"`
	Place       string     `gorm:"size:255" json:"place"`
	Message     string     `gorm:"size:1000" json:"message"`
	Status      string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
