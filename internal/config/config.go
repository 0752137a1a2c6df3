package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Social sign-in
	AppleClientIDs   []string
	GoogleClientIDs  []string
	KakaoUserInfoURL string

	// Firebase Admin (auth token exchange + FCM)
	FirebaseCredentialsFile string
	FirebaseProjectID       string

	// Bunny.net
	BunnyStorageZone     string
	BunnyStorageKey      string
	BunnyStorageRegion   string
	BunnyCDNHost         string
	BunnyStreamLibraryID string
	BunnyStreamAPIKey    string
	BunnyStreamCDNHost   string
	BunnyWebhookSecret   string

	// ImageKit
	ImageKitPublicKey   string
	ImageKitPrivateKey  string
	ImageKitURLEndpoint string

	// Translation
	GoogleTranslateAPIKey string
	GeminiAPIKey          string
	GeminiModel           string

	// Geo lookups
	GeoNamesUsername   string
	NominatimURL       string
	NominatimAgent     string
	RestCountriesURL   string
	GeoLookupTimeout   time.Duration
	ExternalAPITimeout time.Duration

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
	BodyLimitMB int

	// Data files
	LocalesPath string
	ContentPath string

	// Background jobs
	LogRetentionDays     int
	CompanionExpiryEvery time.Duration
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "tripmate"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "720h"), 720*time.Hour),

		AppleClientIDs:   parseCSV(getEnv("APPLE_CLIENT_IDS", "")),
		GoogleClientIDs:  parseCSV(getEnv("GOOGLE_CLIENT_IDS", "")),
		KakaoUserInfoURL: getEnv("KAKAO_USERINFO_URL", "https://kapi.kakao.com/v2/user/me"),

		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),

		BunnyStorageZone:     getEnv("BUNNY_STORAGE_ZONE", ""),
		BunnyStorageKey:      getEnv("BUNNY_STORAGE_KEY", ""),
		BunnyStorageRegion:   getEnv("BUNNY_STORAGE_REGION", ""),
		BunnyCDNHost:         getEnv("BUNNY_CDN_HOST", ""),
		BunnyStreamLibraryID: getEnv("BUNNY_STREAM_LIBRARY_ID", ""),
		BunnyStreamAPIKey:    getEnv("BUNNY_STREAM_API_KEY", ""),
		BunnyStreamCDNHost:   getEnv("BUNNY_STREAM_CDN_HOST", ""),
		BunnyWebhookSecret:   getEnv("BUNNY_WEBHOOK_SECRET", ""),

		ImageKitPublicKey:   getEnv("IMAGEKIT_PUBLIC_KEY", ""),
		ImageKitPrivateKey:  getEnv("IMAGEKIT_PRIVATE_KEY", ""),
		ImageKitURLEndpoint: getEnv("IMAGEKIT_URL_ENDPOINT", ""),

		GoogleTranslateAPIKey: getEnv("GOOGLE_TRANSLATE_API_KEY", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		GeoNamesUsername:   getEnv("GEONAMES_USERNAME", ""),
		NominatimURL:       getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimAgent:     getEnv("NOMINATIM_USER_AGENT", "tripmate-backend/1.0"),
		RestCountriesURL:   getEnv("REST_COUNTRIES_URL", "https://restcountries.com/v3.1"),
		GeoLookupTimeout:   parseDuration(getEnv("GEO_LOOKUP_TIMEOUT", "5s"), 5*time.Second),
		ExternalAPITimeout: parseDuration(getEnv("EXTERNAL_API_TIMEOUT", "30s"), 30*time.Second),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		BodyLimitMB: parseInt(getEnv("BODY_LIMIT_MB", "200"), 200),

		LocalesPath: getEnv("LOCALES_PATH", "locales.yaml"),
		ContentPath: getEnv("CONTENT_PATH", "content.yaml"),

		LogRetentionDays:     parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		CompanionExpiryEvery: parseDuration(getEnv("COMPANION_EXPIRY_INTERVAL", "10m"), 10*time.Minute),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// BunnyStorageEndpoint is the storage API host for the configured region.
// The default (Falkenstein) region has no prefix.
func (c *Config) BunnyStorageEndpoint() string {
	if c.BunnyStorageRegion == "" || c.BunnyStorageRegion == "de" {
		return "https://storage.bunnycdn.com"
	}
	return "https://" + c.BunnyStorageRegion + ".storage.bunnycdn.com"
}

func (c *Config) BunnyStorageEnabled() bool {
	return c.BunnyStorageZone != "" && c.BunnyStorageKey != "" && c.BunnyCDNHost != ""
}

func (c *Config) BunnyStreamEnabled() bool {
	return c.BunnyStreamLibraryID != "" && c.BunnyStreamAPIKey != "" && c.BunnyStreamCDNHost != ""
}

func (c *Config) ImageKitEnabled() bool {
	return c.ImageKitPrivateKey != "" && c.ImageKitPublicKey != ""
}

func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseCredentialsFile != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
