package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser    = "user"
	RoleCurator = "curator"
	RoleAdmin   = "admin"
)

// User holds account, profile, consent and counter fields in one row.
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password        string    `gorm:"not null;default:''" json:"-"`
	Role            string    `gorm:"size:20;default:'user';index" json:"role"`
	AuthProvider    string    `gorm:"size:20;default:'email';uniqueIndex:idx_users_provider_subject,priority:1" json:"auth_provider"`
	ProviderSubject *string   `gorm:"size:255;uniqueIndex:idx_users_provider_subject,priority:2" json:"-"`

	Name        string     `gorm:"size:100" json:"name"`
	Phone       string     `gorm:"size:30" json:"phone,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Gender      string     `gorm:"size:10" json:"gender,omitempty"`
	Location    string     `gorm:"size:120" json:"location,omitempty"`
	CountryCode string     `gorm:"size:3" json:"country_code,omitempty"`
	Language    string     `gorm:"size:10;default:'ko'" json:"language"`
	AvatarURL   string     `gorm:"type:text" json:"avatar_url,omitempty"`
	Bio         string     `gorm:"size:500" json:"bio,omitempty"`

	ProfileCompleted   bool       `gorm:"default:false" json:"profile_completed"`
	TermsAgreedAt      *time.Time `json:"terms_agreed_at,omitempty"`
	MarketingConsent   bool       `gorm:"default:false" json:"marketing_consent"`
	MarketingConsentAt *time.Time `json:"marketing_consent_at,omitempty"`
	LocationConsent    bool       `gorm:"default:false" json:"location_consent"`
	LocationConsentAt  *time.Time `json:"location_consent_at,omitempty"`

	Points         int `gorm:"default:0" json:"points"`
	PostCount      int `gorm:"default:0" json:"post_count"`
	CompanionCount int `gorm:"default:0" json:"companion_count"`
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`

	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsCurator() bool {
	return u.Role == RoleCurator
}
