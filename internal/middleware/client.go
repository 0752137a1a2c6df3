package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/gofiber/fiber/v2"
)

// WebViewMarker is appended to the User-Agent by the native app shell.
const WebViewMarker = "TripMateApp"

// ClientContext negotiates the response language and detects whether the
// request comes from the app WebView. Language precedence: ?lang=,
// X-Language, then the profile language from the access token (applied by
// the JWT middleware), then Accept-Language.
func ClientContext(locales *locale.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		explicit := c.Query("lang")
		if explicit == "" {
			explicit = c.Get("X-Language")
		}

		if l, ok := locales.Lookup(explicit); ok {
			reqctx.SetExplicitLanguage(c, l.Code)
		} else {
			reqctx.SetLanguage(c, locales.Match(c.Get(fiber.HeaderAcceptLanguage)))
		}

		reqctx.SetClient(c, detectClient(c.Get("X-Client"), c.Get(fiber.HeaderUserAgent)))
		return c.Next()
	}
}

func detectClient(header, userAgent string) string {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case reqctx.ClientWebView, "app":
		return reqctx.ClientWebView
	case reqctx.ClientBrowser, "web":
		return reqctx.ClientBrowser
	}
	if strings.Contains(userAgent, WebViewMarker) || strings.Contains(userAgent, "; wv)") {
		return reqctx.ClientWebView
	}
	return reqctx.ClientBrowser
}
