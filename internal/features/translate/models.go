package translate

import (
	"time"

	"github.com/google/uuid"
)

// Translation caches one provider answer per (text hash, target language).
type Translation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TextHash   string    `gorm:"size:64;not null;uniqueIndex:idx_translations_key,priority:1" json:"text_hash"`
	Target     string    `gorm:"size:16;not null;uniqueIndex:idx_translations_key,priority:2" json:"target"`
	Source     string    `gorm:"size:16" json:"source"`
	Translated string    `gorm:"type:text;not null" json:"translated"`
	Provider   string    `gorm:"size:20" json:"provider"`
	CreatedAt  time.Time `json:"created_at"`
}
