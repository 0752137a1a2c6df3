package posts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post is a travel post: text, up to ten images, an optional Bunny Stream
// video and an optional place.
type Post struct {
	ID       uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID uuid.UUID                   `gorm:"type:uuid;not null;index" json:"author_id"`
	Content  string                      `gorm:"type:text" json:"content"`
	Category string                      `gorm:"size:30;index" json:"category,omitempty"`
	Images   datatypes.JSONSlice[string] `json:"images"`

	VideoGUID         string `gorm:"size:64;index" json:"video_guid,omitempty"`
	VideoURL          string `gorm:"type:text" json:"video_url,omitempty"`
	VideoThumbnailURL string `gorm:"type:text" json:"video_thumbnail_url,omitempty"`
	VideoStatus       string `gorm:"size:20" json:"video_status,omitempty"`

	PlaceID     string   `gorm:"size:255" json:"place_id,omitempty"`
	PlaceName   string   `gorm:"size:255" json:"place_name,omitempty"`
	Address     string   `gorm:"size:500" json:"address,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	CityCode    string   `gorm:"size:3;index" json:"city_code,omitempty"`
	CountryCode string   `gorm:"size:2;index" json:"country_code,omitempty"`

	// Business metadata for restaurant/shop posts.
	BusinessHours  datatypes.JSON              `json:"business_hours,omitempty"`
	Menu           datatypes.JSON              `json:"menu,omitempty"`
	PaymentMethods datatypes.JSONSlice[string] `json:"payment_methods,omitempty"`

	LikeCount     int            `gorm:"default:0" json:"like_count"`
	BookmarkCount int            `gorm:"default:0" json:"bookmark_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasMedia reports whether the post carries any image or video.
func (p *Post) HasMedia() bool {
	return len(p.Images) > 0 || p.VideoGUID != ""
}

type PostLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_likes_pair,priority:1" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_likes_pair,priority:2;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type PostBookmark struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_bookmarks_pair,priority:1" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_bookmarks_pair,priority:2;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Categories accepted on posts. An empty category is allowed.
var Categories = []string{
	"food", "cafe", "stay", "sight", "activity", "shopping", "nightlife", "tip",
}

// Video encoding states.
const (
	VideoProcessing = "processing"
	VideoReady      = "ready"
	VideoFailed     = "failed"
)
