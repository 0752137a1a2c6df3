package curators

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a user following a curator.
type Follow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FollowerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair,priority:1" json:"follower_id"`
	CuratorID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair,priority:2;index" json:"curator_id"`
	CreatedAt  time.Time `json:"created_at"`
}
