package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ProviderEmail    = "email"
	ProviderApple    = "apple"
	ProviderGoogle   = "google"
	ProviderKakao    = "kakao"
	ProviderFirebase = "firebase"

	appleJWKSURL  = "https://appleid.apple.com/auth/keys"
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

var (
	ErrProviderNotConfigured = errors.New("sign-in provider is not configured")
	ErrInvalidSocialToken    = errors.New("invalid social sign-in token")
)

// SocialIdentity is what a provider vouches for after token verification.
type SocialIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*SocialIdentity, error)
}

// =============================================================================
// JWKS-backed ID tokens (Apple, Google)
// =============================================================================

type JWKSVerifier struct {
	provider  string
	issuers   []string
	audiences []string
	keyfunc   jwt.Keyfunc
}

func NewJWKSVerifier(provider string, keyfunc jwt.Keyfunc, issuers, audiences []string) *JWKSVerifier {
	return &JWKSVerifier{
		provider:  provider,
		issuers:   issuers,
		audiences: audiences,
		keyfunc:   keyfunc,
	}
}

func NewAppleVerifier(clientIDs []string, jwks *RemoteJWKS) *JWKSVerifier {
	return NewJWKSVerifier(ProviderApple, jwks.Keyfunc, []string{"https://appleid.apple.com"}, clientIDs)
}

func NewGoogleVerifier(clientIDs []string, jwks *RemoteJWKS) *JWKSVerifier {
	return NewJWKSVerifier(ProviderGoogle, jwks.Keyfunc, []string{"https://accounts.google.com", "accounts.google.com"}, clientIDs)
}

func (v *JWKSVerifier) Verify(_ context.Context, token string) (*SocialIdentity, error) {
	if len(v.audiences) == 0 {
		return nil, ErrProviderNotConfigured
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSocialToken, err)
	}

	iss, _ := claims.GetIssuer()
	if !contains(v.issuers, iss) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidSocialToken, iss)
	}

	aud, _ := claims.GetAudience()
	matched := false
	for _, a := range aud {
		if contains(v.audiences, a) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidSocialToken)
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidSocialToken)
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return &SocialIdentity{
		Provider:      v.provider,
		Subject:       sub,
		Email:         email,
		EmailVerified: boolClaim(claims["email_verified"]),
		Name:          name,
	}, nil
}

// Apple sends email_verified as a string, Google as a bool.
func boolClaim(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	}
	return false
}

// RemoteJWKS fetches a provider key set on first use and refreshes it in
// the background afterwards.
type RemoteJWKS struct {
	url  string
	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

func NewRemoteJWKS(url string) *RemoteJWKS {
	return &RemoteJWKS{url: url}
}

func AppleJWKS() *RemoteJWKS  { return NewRemoteJWKS(appleJWKSURL) }
func GoogleJWKS() *RemoteJWKS { return NewRemoteJWKS(googleJWKSURL) }

func (r *RemoteJWKS) load() (*keyfunc.JWKS, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jwks != nil {
		return r.jwks, nil
	}

	jwks, err := keyfunc.Get(r.url, keyfunc.Options{
		RefreshInterval:   12 * time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.Error("jwks refresh failed", "url", r.url, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", r.url, err)
	}
	r.jwks = jwks
	return jwks, nil
}

func (r *RemoteJWKS) Keyfunc(token *jwt.Token) (interface{}, error) {
	jwks, err := r.load()
	if err != nil {
		return nil, err
	}
	return jwks.Keyfunc(token)
}

func (r *RemoteJWKS) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jwks != nil {
		r.jwks.EndBackground()
		r.jwks = nil
	}
}

// =============================================================================
// Kakao (access token checked against the user-info endpoint)
// =============================================================================

type KakaoVerifier struct {
	userInfoURL string
	httpClient  *http.Client
}

func NewKakaoVerifier(userInfoURL string) *KakaoVerifier {
	return &KakaoVerifier{
		userInfoURL: userInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type kakaoUserInfo struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email           string `json:"email"`
		IsEmailVerified bool   `json:"is_email_verified"`
		Profile         struct {
			Nickname string `json:"nickname"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func (v *KakaoVerifier) Verify(ctx context.Context, token string) (*SocialIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao user info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidSocialToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kakao user info returned status %d", resp.StatusCode)
	}

	var info kakaoUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode kakao user info: %w", err)
	}
	if info.ID == 0 {
		return nil, ErrInvalidSocialToken
	}

	return &SocialIdentity{
		Provider:      ProviderKakao,
		Subject:       strconv.FormatInt(info.ID, 10),
		Email:         info.KakaoAccount.Email,
		EmailVerified: info.KakaoAccount.IsEmailVerified,
		Name:          info.KakaoAccount.Profile.Nickname,
	}, nil
}

// =============================================================================
// Firebase Auth ID tokens
// =============================================================================

type firebaseTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type FirebaseVerifier struct {
	client firebaseTokenVerifier
}

func NewFirebaseVerifier(client firebaseTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*SocialIdentity, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSocialToken, err)
	}

	email, _ := decoded.Claims["email"].(string)
	name, _ := decoded.Claims["name"].(string)
	return &SocialIdentity{
		Provider:      ProviderFirebase,
		Subject:       decoded.UID,
		Email:         email,
		EmailVerified: boolClaim(decoded.Claims["email_verified"]),
		Name:          name,
	}, nil
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
