package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
)

type CookieConfig struct {
	Name     string
	SameSite string
	HTTPOnly bool
	Secure   bool
}

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type StorageConfig struct {
	Backend        string
	LocalDir       string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
}

type Config struct {
	Env      string
	HTTPPort string
	BaseURL  string

	DatabaseURL string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	TokenRetention  time.Duration

	Cookie CookieConfig

	Google OAuthProviderConfig
	GitHub OAuthProviderConfig

	Storage StorageConfig

	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	// .env is optional; system environment wins in production.
	_ = godotenv.Load(".env")

	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if len(jwtSecret) < constants.JWTSecretMinLength {
		return nil, fmt.Errorf("%w: got %d bytes", commonerrors.ErrInvalidJWTSecret, len(jwtSecret))
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:      env,
		HTTPPort: getEnv("HTTP_PORT", constants.DefaultHTTPPort),
		BaseURL:  getEnv("BASE_URL", "http://localhost:"+getEnv("HTTP_PORT", constants.DefaultHTTPPort)),

		DatabaseURL: databaseURL,

		JWTSecret:       jwtSecret,
		AccessTokenTTL:  getDurationEnv("JWT_EXPIRES_IN", constants.DefaultAccessTokenTTL),
		RefreshTokenTTL: time.Duration(getIntEnv("REFRESH_TOKEN_EXPIRES_DAYS", constants.DefaultRefreshTokenDays)) * 24 * time.Hour,
		TokenRetention:  getDurationEnv("REFRESH_TOKEN_RETENTION", constants.DefaultTokenRetention),

		Cookie: CookieConfig{
			Name:     getEnv("REFRESH_COOKIE_NAME", constants.DefaultRefreshCookieName),
			SameSite: getEnv("REFRESH_COOKIE_SAME_SITE", "lax"),
			HTTPOnly: getEnv("REFRESH_COOKIE_HTTP_ONLY", "true") != "false",
			Secure:   getEnv("REFRESH_COOKIE_SECURE", "true") != "false" && env == "production",
		},

		Google: OAuthProviderConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			CallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		},
		GitHub: OAuthProviderConfig{
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			CallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
		},

		Storage: StorageConfig{
			Backend:        getEnv("FILE_STORAGE_BACKEND", "db"),
			LocalDir:       getEnv("FILE_STORAGE_LOCAL_DIR", "uploads"),
			S3Region:       os.Getenv("AWS_REGION"),
			S3Bucket:       os.Getenv("S3_BUCKET"),
			S3AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			S3SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			S3BaseEndpoint: os.Getenv("S3_BASE_ENDPOINT"),
		},

		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (p OAuthProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.CallbackURL != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", commonerrors.ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
