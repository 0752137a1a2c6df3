package content

import (
	"time"

	"github.com/google/uuid"
)

type Banner struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id" yaml:"-"`
	Language  string     `gorm:"size:10;not null;index" json:"language" yaml:"language"`
	Title     string     `gorm:"size:200;not null" json:"title" yaml:"title"`
	ImageURL  string     `gorm:"type:text;not null" json:"image_url" yaml:"image_url"`
	LinkURL   string     `gorm:"type:text" json:"link_url,omitempty" yaml:"link_url"`
	SortOrder int        `gorm:"default:0" json:"sort_order" yaml:"sort_order"`
	Active    bool       `gorm:"index" json:"active" yaml:"active"`
	StartsAt  *time.Time `json:"starts_at,omitempty" yaml:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty" yaml:"ends_at"`
	CreatedAt time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"-"`
}

type FAQ struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" yaml:"-"`
	Language  string    `gorm:"size:10;not null;index" json:"language" yaml:"language"`
	Category  string    `gorm:"size:50;index" json:"category" yaml:"category"`
	Question  string    `gorm:"size:500;not null" json:"question" yaml:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer" yaml:"answer"`
	SortOrder int       `gorm:"default:0" json:"sort_order" yaml:"sort_order"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

type Notice struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" yaml:"-"`
	Language    string    `gorm:"size:10;not null;index" json:"language" yaml:"language"`
	Title       string    `gorm:"size:200;not null" json:"title" yaml:"title"`
	Body        string    `gorm:"type:text;not null" json:"body" yaml:"body"`
	Pinned      bool      `gorm:"default:false" json:"pinned" yaml:"pinned"`
	PublishedAt time.Time `gorm:"not null;index" json:"published_at" yaml:"published_at"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

func (b *Banner) setID(id uuid.UUID) { b.ID = id }
func (f *FAQ) setID(id uuid.UUID)    { f.ID = id }
func (n *Notice) setID(id uuid.UUID) { n.ID = id }
