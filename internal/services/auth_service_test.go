package services

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

type stubVerifier struct {
	identity *SocialIdentity
	err      error
}

func (s stubVerifier) Verify(context.Context, string) (*SocialIdentity, error) {
	return s.identity, s.err
}

type recordingCleaner struct {
	called []uuid.UUID
}

func (r *recordingCleaner) CleanupUser(_ *gorm.DB, userID uuid.UUID) error {
	r.called = append(r.called, userID)
	return nil
}

func newAuthService(t *testing.T, verifiers map[string]IdentityVerifier) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewAuthService(db, testutil.Config(), verifiers), db
}

func registerReq() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Email:      gofakeit.Email(),
		Password:   "correct-horse",
		Name:       gofakeit.FirstName(),
		AgreeTerms: true,
	}
}

func TestRegister(t *testing.T) {
	svc, db := newAuthService(t, nil)

	req := registerReq()
	req.Email = "  Traveler@Example.COM "
	resp, err := svc.Register(req)
	require.NoError(t, err)
	assert.True(t, resp.IsNewUser)
	assert.Equal(t, "traveler@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	var stored models.RefreshToken
	require.NoError(t, db.First(&stored).Error)
	assert.NotEqual(t, resp.RefreshToken, stored.TokenHash, "only the hash is stored")
	assert.Len(t, stored.TokenHash, 64)

	dup := registerReq()
	dup.Email = "traveler@example.com"
	_, err = svc.Register(dup)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuthService(t, nil)

	tests := []struct {
		name   string
		mutate func(*dto.RegisterRequest)
		want   error
	}{
		{"bad email", func(r *dto.RegisterRequest) { r.Email = "not-an-email" }, ErrInvalidEmail},
		{"short password", func(r *dto.RegisterRequest) { r.Password = "short" }, ErrWeakPassword},
		{"terms not accepted", func(r *dto.RegisterRequest) { r.AgreeTerms = false }, ErrTermsRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerReq()
			tt.mutate(req)
			_, err := svc.Register(req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin_AccessTokenClaims(t *testing.T) {
	svc, _ := newAuthService(t, nil)
	req := registerReq()
	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Email: req.Email, Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(&dto.LoginRequest{Email: req.Email, Password: req.Password})
	require.NoError(t, err)
	assert.False(t, resp.IsNewUser)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testutil.JWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, req.Email, claims["email"])
	assert.Equal(t, models.RoleUser, claims["role"])
	assert.Contains(t, claims, "iat")
	assert.Contains(t, claims, "exp")
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _ := newAuthService(t, nil)
	first, err := svc.Register(registerReq())
	require.NoError(t, err)

	second, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken, "rotated token cannot be reused")

	require.NoError(t, svc.Logout(&dto.LogoutRequest{RefreshToken: second.RefreshToken}))
	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: second.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_Expired(t *testing.T) {
	svc, _ := newAuthService(t, nil)
	resp, err := svc.Register(registerReq())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSocialSignIn_CreatesThenReuses(t *testing.T) {
	identity := &SocialIdentity{Provider: ProviderKakao, Subject: "4242", Email: "k@kakao.com", Name: "여행자"}
	svc, db := newAuthService(t, map[string]IdentityVerifier{
		ProviderKakao: stubVerifier{identity: identity},
	})

	first, err := svc.SocialSignIn(context.Background(), ProviderKakao, &dto.SocialSignInRequest{Token: "tok"})
	require.NoError(t, err)
	assert.True(t, first.IsNewUser)
	assert.Equal(t, "여행자", first.User.Name)
	assert.Equal(t, ProviderKakao, first.User.AuthProvider)

	second, err := svc.SocialSignIn(context.Background(), ProviderKakao, &dto.SocialSignInRequest{Token: "tok"})
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.ID, second.User.ID)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSocialSignIn_LinksExistingEmailAccount(t *testing.T) {
	svc, db := newAuthService(t, nil)
	req := registerReq()
	registered, err := svc.Register(req)
	require.NoError(t, err)

	svc.verifiers[ProviderGoogle] = stubVerifier{identity: &SocialIdentity{
		Provider: ProviderGoogle, Subject: "google-sub", Email: req.Email, EmailVerified: true,
	}}

	resp, err := svc.SocialSignIn(context.Background(), ProviderGoogle, &dto.SocialSignInRequest{Token: "id-token"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.False(t, resp.IsNewUser)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", resp.User.ID).Error)
	require.NotNil(t, user.ProviderSubject)
	assert.Equal(t, "google-sub", *user.ProviderSubject)
}

func TestSocialSignIn_UnverifiedEmailNeverLinks(t *testing.T) {
	svc, db := newAuthService(t, nil)
	victim, err := svc.Register(registerReq())
	require.NoError(t, err)

	tests := []struct {
		name     string
		identity *SocialIdentity
	}{
		{"no email from provider", &SocialIdentity{Provider: ProviderKakao, Subject: "kakao-1"}},
		{"unverified email", &SocialIdentity{Provider: ProviderKakao, Subject: "kakao-2", Email: victim.User.Email}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.verifiers[ProviderKakao] = stubVerifier{identity: tt.identity}

			resp, err := svc.SocialSignIn(context.Background(), ProviderKakao, &dto.SocialSignInRequest{Token: "tok"})
			require.NoError(t, err)
			assert.NotEqual(t, victim.User.ID, resp.User.ID)
			assert.True(t, resp.IsNewUser)
			assert.Equal(t, ProviderKakao+"_"+tt.identity.Subject+"@users.tripmate.invalid", resp.User.Email)
		})
	}

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", victim.User.ID).Error)
	assert.Equal(t, ProviderEmail, user.AuthProvider)
	assert.Nil(t, user.ProviderSubject)
}

func TestSocialSignIn_EmailBoundToOtherProvider(t *testing.T) {
	svc, db := newAuthService(t, nil)
	subject := "apple-sub"
	existing := testutil.CreateUser(t, db, func(u *models.User) {
		u.Email = "mina@example.com"
		u.AuthProvider = ProviderApple
		u.ProviderSubject = &subject
	})

	svc.verifiers[ProviderGoogle] = stubVerifier{identity: &SocialIdentity{
		Provider: ProviderGoogle, Subject: "google-sub", Email: existing.Email, EmailVerified: true,
	}}

	_, err := svc.SocialSignIn(context.Background(), ProviderGoogle, &dto.SocialSignInRequest{Token: "id-token"})
	assert.ErrorIs(t, err, ErrSocialConflict)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", existing.ID).Error)
	assert.Equal(t, ProviderApple, user.AuthProvider)
	assert.Equal(t, "apple-sub", *user.ProviderSubject)
}

func TestSocialSignIn_Errors(t *testing.T) {
	svc, _ := newAuthService(t, map[string]IdentityVerifier{
		ProviderApple: stubVerifier{err: ErrInvalidSocialToken},
	})

	_, err := svc.SocialSignIn(context.Background(), ProviderKakao, &dto.SocialSignInRequest{Token: "x"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = svc.SocialSignIn(context.Background(), ProviderApple, &dto.SocialSignInRequest{Token: ""})
	assert.ErrorIs(t, err, ErrInvalidSocialToken)

	_, err = svc.SocialSignIn(context.Background(), ProviderApple, &dto.SocialSignInRequest{Token: "x"})
	assert.ErrorIs(t, err, ErrInvalidSocialToken)

	assert.Equal(t, []string{ProviderApple}, svc.Providers())
}

func TestDeleteAccount(t *testing.T) {
	svc, db := newAuthService(t, nil)
	cleaner := &recordingCleaner{}
	svc.AddCleaners(cleaner)

	req := registerReq()
	resp, err := svc.Register(req)
	require.NoError(t, err)
	userID := resp.User.ID

	other := testutil.CreateUser(t, db)
	require.NoError(t, db.Create(&models.Block{ID: uuid.New(), BlockerID: other.ID, BlockedID: userID}).Error)
	require.NoError(t, db.Create(&models.DeviceToken{ID: uuid.New(), UserID: userID, Token: "fcm-1"}).Error)

	assert.ErrorIs(t, svc.DeleteAccount(userID, ""), ErrPasswordRequired)
	assert.ErrorIs(t, svc.DeleteAccount(userID, "wrong-password"), ErrInvalidCredentials)

	require.NoError(t, svc.DeleteAccount(userID, req.Password))
	assert.Equal(t, []uuid.UUID{userID}, cleaner.called)

	var count int64
	db.Unscoped().Model(&models.User{}).Where("id = ?", userID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Block{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.DeviceToken{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.RefreshToken{}).Count(&count)
	assert.Zero(t, count)

	_, err = svc.Register(&dto.RegisterRequest{Email: req.Email, Password: req.Password, AgreeTerms: true})
	assert.NoError(t, err, "email is free again")

	assert.ErrorIs(t, svc.DeleteAccount(uuid.New(), "x"), ErrUserNotFound)
}

func TestDeleteAccount_SocialUserNeedsNoPassword(t *testing.T) {
	svc, db := newAuthService(t, nil)
	subject := "apple-sub"
	user := testutil.CreateUser(t, db, func(u *models.User) {
		u.AuthProvider = ProviderApple
		u.ProviderSubject = &subject
	})

	require.NoError(t, svc.DeleteAccount(user.ID, ""))
}
