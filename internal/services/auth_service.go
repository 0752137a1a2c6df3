package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrTermsRequired      = errors.New("terms of service must be accepted")
	ErrPasswordRequired   = errors.New("password is required")
	ErrSocialConflict     = errors.New("email is linked to another sign-in account")
)

const minPasswordLength = 8

// UserCleaner removes rows a feature owns for a user inside the account
// deletion transaction.
type UserCleaner interface {
	CleanupUser(tx *gorm.DB, userID uuid.UUID) error
}

type AuthService struct {
	db        *gorm.DB
	cfg       *config.Config
	verifiers map[string]IdentityVerifier
	cleaners  []UserCleaner
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, verifiers map[string]IdentityVerifier) *AuthService {
	if verifiers == nil {
		verifiers = map[string]IdentityVerifier{}
	}
	return &AuthService{
		db:        db,
		cfg:       cfg,
		verifiers: verifiers,
		now:       time.Now,
	}
}

func (s *AuthService) AddCleaners(cleaners ...UserCleaner) {
	s.cleaners = append(s.cleaners, cleaners...)
}

// Providers lists the social providers that have a verifier wired.
func (s *AuthService) Providers() []string {
	out := make([]string, 0, len(s.verifiers))
	for _, p := range []string{ProviderApple, ProviderGoogle, ProviderKakao, ProviderFirebase} {
		if _, ok := s.verifiers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if !req.AgreeTerms {
		return nil, ErrTermsRequired
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	user := models.User{
		ID:               uuid.New(),
		Email:            email,
		Password:         string(hash),
		Role:             models.RoleUser,
		AuthProvider:     ProviderEmail,
		Name:             name,
		Language:         "ko",
		TermsAgreedAt:    &now,
		MarketingConsent: req.MarketingOptIn,
		LastLoginAt:      &now,
	}
	if req.MarketingOptIn {
		user.MarketingConsentAt = &now
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	resp, err := s.generateTokenPair(&user)
	if err != nil {
		return nil, err
	}
	resp.IsNewUser = true
	return resp, nil
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.touchLogin(&user)
	return s.generateTokenPair(&user)
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	if s.now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(req.RefreshToken)).
		Update("revoked", true).Error
}

func (s *AuthService) DeleteAccount(userID uuid.UUID, password string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if user.AuthProvider == ProviderEmail {
		if password == "" {
			return ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			return ErrInvalidCredentials
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, cleaner := range s.cleaners {
			if err := cleaner.CleanupUser(tx, userID); err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.DeviceToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("reporter_id = ?", userID).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		if err := tx.Where("blocker_id = ? OR blocked_id = ?", userID, userID).Delete(&models.Block{}).Error; err != nil {
			return err
		}
		// Hard delete frees the email and provider subject for a fresh sign-up.
		return tx.Unscoped().Delete(&user).Error
	})
}

// SocialSignIn verifies a provider credential and returns a token pair for
// the matching user, creating or linking the account as needed.
func (s *AuthService) SocialSignIn(ctx context.Context, provider string, req *dto.SocialSignInRequest) (*dto.AuthResponse, error) {
	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, ErrProviderNotConfigured
	}
	if strings.TrimSpace(req.Token) == "" {
		return nil, ErrInvalidSocialToken
	}

	identity, err := verifier.Verify(ctx, req.Token)
	if err != nil {
		slog.Warn("social token verification failed", "provider", provider, "error", err)
		if errors.Is(err, ErrProviderNotConfigured) || errors.Is(err, ErrInvalidSocialToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSocialToken, err)
	}

	// Only a provider-verified email may match an existing account.
	verifiedEmail := ""
	if identity.EmailVerified {
		verifiedEmail = normalizeEmail(identity.Email)
	}

	subject := identity.Subject
	isNew := false

	var user models.User
	err = s.db.Where("auth_provider = ? AND provider_subject = ?", provider, subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && verifiedEmail != "" {
		err = s.db.Where("email = ?", verifiedEmail).First(&user).Error
		if err == nil && user.ProviderSubject != nil {
			return nil, ErrSocialConflict
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		email := verifiedEmail
		if email == "" {
			email = provider + "_" + subject + "@users.tripmate.invalid"
		}
		name := strings.TrimSpace(req.FullName)
		if name == "" {
			name = identity.Name
		}
		if name == "" && verifiedEmail != "" {
			name = strings.Split(email, "@")[0]
		}

		user = models.User{
			ID:              uuid.New(),
			Email:           email,
			Role:            models.RoleUser,
			AuthProvider:    provider,
			ProviderSubject: &subject,
			Name:            name,
			Language:        "ko",
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create %s user: %w", provider, err)
		}
		isNew = true
	case err != nil:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	case user.ProviderSubject == nil:
		if err := s.db.Model(&user).Updates(map[string]interface{}{
			"auth_provider":    provider,
			"provider_subject": subject,
		}).Error; err != nil {
			return nil, fmt.Errorf("failed to link %s account: %w", provider, err)
		}
		user.AuthProvider = provider
		user.ProviderSubject = &subject
	}

	s.touchLogin(&user)

	resp, err := s.generateTokenPair(&user)
	if err != nil {
		return nil, err
	}
	resp.IsNewUser = isNew
	return resp, nil
}

func (s *AuthService) touchLogin(user *models.User) {
	now := s.now()
	if err := s.db.Model(user).Update("last_login_at", now).Error; err != nil {
		slog.Warn("failed to update last login", "user_id", user.ID, "error", err)
		return
	}
	user.LastLoginAt = &now
}

func (s *AuthService) generateTokenPair(user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         ToUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"lang":  user.Language,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func ToUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		Role:             user.Role,
		AuthProvider:     user.AuthProvider,
		Language:         user.Language,
		ProfileCompleted: user.ProfileCompleted,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
