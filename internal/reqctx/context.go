// Package reqctx reads per-request values that middleware stores in Fiber locals.
package reqctx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	localUser     = "user"
	localLanguage = "language"
	localLangSet  = "language_explicit"
	localClient   = "client"
)

const (
	ClientBrowser = "browser"
	ClientWebView = "webview"
)

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals(localUser).(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// OptionalUserID returns the caller's ID on routes where auth is optional.
func OptionalUserID(c *fiber.Ctx) uuid.UUID {
	id, err := GetUserID(c)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// GetClaim returns a string claim from the access token, or "".
func GetClaim(c *fiber.Ctx, name string) string {
	token, ok := c.Locals(localUser).(*jwt.Token)
	if !ok || token == nil {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	v, _ := claims[name].(string)
	return v
}

func SetLanguage(c *fiber.Ctx, lang string) {
	c.Locals(localLanguage, lang)
}

// SetExplicitLanguage records a language the client asked for by query or
// header. It wins over the language stored on the user's profile.
func SetExplicitLanguage(c *fiber.Ctx, lang string) {
	c.Locals(localLanguage, lang)
	c.Locals(localLangSet, true)
}

func LanguageExplicit(c *fiber.Ctx) bool {
	v, _ := c.Locals(localLangSet).(bool)
	return v
}

// GetLanguage returns the negotiated language, defaulting to Korean.
func GetLanguage(c *fiber.Ctx) string {
	if lang, ok := c.Locals(localLanguage).(string); ok && lang != "" {
		return lang
	}
	return "ko"
}

func SetClient(c *fiber.Ctx, client string) {
	c.Locals(localClient, client)
}

func GetClient(c *fiber.Ctx) string {
	if client, ok := c.Locals(localClient).(string); ok && client != "" {
		return client
	}
	return ClientBrowser
}

func IsWebView(c *fiber.Ctx) bool {
	return GetClient(c) == ClientWebView
}
