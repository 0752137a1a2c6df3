package chat

import (
	"time"

	"github.com/google/uuid"
)

// Room is a one-to-one conversation. UserAID sorts before UserBID so a
// pair maps to a single row.
type Room struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserAID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_chat_rooms_pair,priority:1" json:"user_a_id"`
	UserBID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_chat_rooms_pair,priority:2;index" json:"user_b_id"`
	CompanionRequestID *uuid.UUID `gorm:"type:uuid;index" json:"companion_request_id,omitempty"`
	LastMessage        string     `gorm:"size:200" json:"last_message"`
	LastMessageAt      *time.Time `gorm:"index" json:"last_message_at,omitempty"`
	UserAReadAt        *time.Time `json:"-"`
	UserBReadAt        *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (r *Room) Has(userID uuid.UUID) bool {
	return r.UserAID == userID || r.UserBID == userID
}

// Other returns the participant that is not userID.
func (r *Room) Other(userID uuid.UUID) uuid.UUID {
	if r.UserAID == userID {
		return r.UserBID
	}
	return r.UserAID
}

func (r *Room) readAt(userID uuid.UUID) *time.Time {
	if r.UserAID == userID {
		return r.UserAReadAt
	}
	return r.UserBReadAt
}

func readColumn(r *Room, userID uuid.UUID) string {
	if r.UserAID == userID {
		return "user_a_read_at"
	}
	return "user_b_read_at"
}

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_messages_room_time,priority:1" json:"room_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"index:idx_chat_messages_room_time,priority:2" json:"created_at"`
}
