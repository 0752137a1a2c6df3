package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/testutil"
)

func newUserService(t *testing.T) (*UserService, *models.User) {
	t.Helper()
	db := testutil.NewDB(t)
	locales, err := locale.NewRegistry("ko", "ko", "en", "ja")
	require.NoError(t, err)
	user := testutil.CreateUser(t, db, func(u *models.User) { u.TermsAgreedAt = nil })
	return NewUserService(db, locales, NewModerationService(db)), user
}

func boolPtr(b bool) *bool { return &b }

func TestCompleteProfile(t *testing.T) {
	svc, user := newUserService(t)
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	updated, err := svc.CompleteProfile(user.ID, &dto.CompleteProfileRequest{
		Name:             "  김여행 ",
		BirthDate:        "1995-03-14",
		Gender:           "female",
		Location:         "Seoul",
		CountryCode:      "kr",
		Language:         "en",
		MarketingConsent: boolPtr(true),
	})
	require.NoError(t, err)

	assert.True(t, updated.ProfileCompleted)
	assert.Equal(t, "김여행", updated.Name)
	assert.Equal(t, "KR", updated.CountryCode)
	assert.Equal(t, "en", updated.Language)
	require.NotNil(t, updated.BirthDate)
	assert.Equal(t, "1995-03-14", updated.BirthDate.Format(birthDateLayout))
	assert.True(t, updated.MarketingConsent)
	require.NotNil(t, updated.MarketingConsentAt)
	assert.True(t, updated.MarketingConsentAt.Equal(fixed))
	assert.NotNil(t, updated.TermsAgreedAt)
	assert.False(t, updated.LocationConsent)
}

func TestCompleteProfile_Validation(t *testing.T) {
	svc, user := newUserService(t)

	tests := []struct {
		name string
		req  dto.CompleteProfileRequest
		want error
	}{
		{"missing name", dto.CompleteProfileRequest{}, ErrNameRequired},
		{"bad birth date", dto.CompleteProfileRequest{Name: "a", BirthDate: "14/03/1995"}, ErrInvalidBirthDate},
		{"future birth date", dto.CompleteProfileRequest{Name: "a", BirthDate: "2999-01-01"}, ErrInvalidBirthDate},
		{"bad gender", dto.CompleteProfileRequest{Name: "a", Gender: "robot"}, ErrInvalidGender},
		{"unsupported language", dto.CompleteProfileRequest{Name: "a", Language: "fr"}, ErrUnsupportedLanguage},
		{"profane bio", dto.CompleteProfileRequest{Name: "a", Bio: "지랄"}, ErrContentRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CompleteProfile(user.ID, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := svc.CompleteProfile(uuid.New(), &dto.CompleteProfileRequest{Name: "a"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateConsents(t *testing.T) {
	svc, user := newUserService(t)

	updated, err := svc.UpdateConsents(user.ID, &dto.ConsentRequest{LocationConsent: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.LocationConsent)
	assert.NotNil(t, updated.LocationConsentAt)
	assert.Nil(t, updated.MarketingConsentAt, "untouched consent keeps no timestamp")

	same, err := svc.UpdateConsents(user.ID, &dto.ConsentRequest{})
	require.NoError(t, err)
	assert.True(t, same.LocationConsent)
}

func TestPointsAndCounters(t *testing.T) {
	svc, user := newUserService(t)

	require.NoError(t, svc.AwardPoints(user.ID, 10, "post"))
	require.NoError(t, svc.AwardPoints(user.ID, 5, "companion"))
	assert.ErrorIs(t, svc.AwardPoints(uuid.New(), 5, "post"), ErrUserNotFound)

	require.NoError(t, IncrementUserCounter(svc.db, user.ID, CounterPosts, 1))
	require.NoError(t, IncrementUserCounter(svc.db, user.ID, CounterPosts, -1))
	require.NoError(t, IncrementUserCounter(svc.db, user.ID, CounterPosts, -1), "clamped at zero")
	assert.ErrorIs(t, IncrementUserCounter(svc.db, user.ID, "points; DROP TABLE users", 1), ErrInvalidCounter)

	me, err := svc.GetMe(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, me.Points)
	assert.Equal(t, 0, me.PostCount)

	profile, err := svc.GetPublicProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Name, profile.Name)
	assert.False(t, profile.IsCurator)

	profiles, err := svc.PublicProfiles([]uuid.UUID{user.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}
