package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNameRequired        = errors.New("name is required")
	ErrInvalidBirthDate    = errors.New("birth_date must be YYYY-MM-DD and in the past")
	ErrInvalidGender       = errors.New("gender must be male, female, or other")
	ErrUnsupportedLanguage = errors.New("language is not supported")
	ErrInvalidCounter      = errors.New("unknown user counter")
)

const birthDateLayout = "2006-01-02"

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

// Counter columns that features may bump.
const (
	CounterPosts      = "post_count"
	CounterCompanions = "companion_count"
	CounterFollowers  = "follower_count"
	CounterFollowing  = "following_count"
)

var validCounters = map[string]bool{
	CounterPosts: true, CounterCompanions: true, CounterFollowers: true, CounterFollowing: true,
}

type UserService struct {
	db      *gorm.DB
	locales *locale.Registry
	mod     *ModerationService
	now     func() time.Time
}

func NewUserService(db *gorm.DB, locales *locale.Registry, mod *ModerationService) *UserService {
	return &UserService{db: db, locales: locales, mod: mod, now: time.Now}
}

func (s *UserService) GetMe(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) CompleteProfile(userID uuid.UUID, req *dto.CompleteProfileRequest) (*models.User, error) {
	user, err := s.GetMe(userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if ok, reason := s.mod.FilterContent(name + " " + req.Bio); !ok {
		return nil, Rejected(reason)
	}

	updates := map[string]interface{}{
		"name":              name,
		"phone":             strings.TrimSpace(req.Phone),
		"location":          strings.TrimSpace(req.Location),
		"country_code":      strings.ToUpper(strings.TrimSpace(req.CountryCode)),
		"bio":               strings.TrimSpace(req.Bio),
		"profile_completed": true,
	}
	if req.AvatarURL != "" {
		updates["avatar_url"] = req.AvatarURL
	}

	if req.BirthDate != "" {
		birth, err := time.Parse(birthDateLayout, req.BirthDate)
		if err != nil || !birth.Before(s.now()) {
			return nil, ErrInvalidBirthDate
		}
		updates["birth_date"] = birth
	}

	if req.Gender != "" {
		if !validGenders[req.Gender] {
			return nil, ErrInvalidGender
		}
		updates["gender"] = req.Gender
	}

	if req.Language != "" {
		lang, ok := s.locales.Lookup(req.Language)
		if !ok {
			return nil, ErrUnsupportedLanguage
		}
		updates["language"] = lang.Code
	}

	now := s.now()
	if user.TermsAgreedAt == nil {
		updates["terms_agreed_at"] = now
	}
	s.applyConsents(updates, req.MarketingConsent, req.LocationConsent, now)

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetMe(userID)
}

func (s *UserService) UpdateConsents(userID uuid.UUID, req *dto.ConsentRequest) (*models.User, error) {
	user, err := s.GetMe(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	s.applyConsents(updates, req.MarketingConsent, req.LocationConsent, s.now())
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update consents: %w", err)
	}
	return s.GetMe(userID)
}

func (s *UserService) applyConsents(updates map[string]interface{}, marketing, location *bool, now time.Time) {
	if marketing != nil {
		updates["marketing_consent"] = *marketing
		updates["marketing_consent_at"] = now
	}
	if location != nil {
		updates["location_consent"] = *location
		updates["location_consent_at"] = now
	}
}

func (s *UserService) SetLanguage(userID uuid.UUID, code string) error {
	lang, ok := s.locales.Lookup(code)
	if !ok {
		return ErrUnsupportedLanguage
	}
	return s.db.Model(&models.User{}).Where("id = ?", userID).Update("language", lang.Code).Error
}

func (s *UserService) GetPublicProfile(userID uuid.UUID) (*dto.PublicProfile, error) {
	user, err := s.GetMe(userID)
	if err != nil {
		return nil, err
	}
	return ToPublicProfile(user), nil
}

// PublicProfiles loads profiles for ids; unknown ids are omitted.
func (s *UserService) PublicProfiles(ids []uuid.UUID) (map[uuid.UUID]dto.PublicProfile, error) {
	out := make(map[uuid.UUID]dto.PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = *ToPublicProfile(&users[i])
	}
	return out, nil
}

func (s *UserService) AwardPoints(userID uuid.UUID, points int, reason string) error {
	if points == 0 {
		return nil
	}
	result := s.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", points))
	if result.Error != nil {
		return fmt.Errorf("failed to award points for %s: %w", reason, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IncrementUserCounter adjusts one of the denormalized usage counters
// inside db, which may be a transaction. The value never drops below zero.
func IncrementUserCounter(db *gorm.DB, userID uuid.UUID, column string, delta int) error {
	if !validCounters[column] {
		return ErrInvalidCounter
	}
	q := db.Model(&models.User{}).Where("id = ?", userID)
	if delta < 0 {
		q = q.Where(column+" >= ?", -delta)
	}
	return q.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

func ToPublicProfile(user *models.User) *dto.PublicProfile {
	return &dto.PublicProfile{
		ID:             user.ID,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
		Bio:            user.Bio,
		Location:       user.Location,
		IsCurator:      user.IsCurator(),
		PostCount:      user.PostCount,
		FollowerCount:  user.FollowerCount,
		FollowingCount: user.FollowingCount,
		JoinedAt:       user.CreatedAt,
	}
}
