package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	AgreeTerms     bool   `json:"agree_terms"`
	MarketingOptIn bool   `json:"marketing_opt_in"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SocialSignInRequest carries a provider credential: an ID token for
// apple/google/firebase or an access token for kakao.
type SocialSignInRequest struct {
	Token    string `json:"token"`
	FullName string `json:"full_name,omitempty"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	IsNewUser    bool         `json:"is_new_user"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             string    `json:"role"`
	AuthProvider     string    `json:"auth_provider"`
	Language         string    `json:"language"`
	ProfileCompleted bool      `json:"profile_completed"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	DB        string          `json:"db"`
	Features  map[string]bool `json:"features"`
}

type CompleteProfileRequest struct {
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	BirthDate        string `json:"birth_date"` // YYYY-MM-DD
	Gender           string `json:"gender"`
	Location         string `json:"location"`
	CountryCode      string `json:"country_code"`
	Language         string `json:"language"`
	Bio              string `json:"bio"`
	AvatarURL        string `json:"avatar_url"`
	MarketingConsent *bool  `json:"marketing_consent"`
	LocationConsent  *bool  `json:"location_consent"`
}

type ConsentRequest struct {
	MarketingConsent *bool `json:"marketing_consent"`
	LocationConsent  *bool `json:"location_consent"`
}

type DeviceTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type PublicProfile struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Location       string    `json:"location,omitempty"`
	IsCurator      bool      `json:"is_curator"`
	PostCount      int       `json:"post_count"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	JoinedAt       time.Time `json:"joined_at"`
}
