package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
)

const JWTSecret = "test-secret-0123456789abcdef"

// Config returns a config suitable for handler tests.
func Config() *config.Config {
	return &config.Config{
		JWTSecret:        JWTSecret,
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		CORSOrigins:      "*",
		BodyLimitMB:      20,
	}
}

// Token signs an access token for user with the test secret.
func Token(t *testing.T, user *models.User) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"lang":  user.Language,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	require.NoError(t, err)
	return signed
}

// Bearer is Token formatted for the Authorization header.
func Bearer(t *testing.T, user *models.User) string {
	return "Bearer " + Token(t, user)
}
