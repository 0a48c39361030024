package constants

import "time"

const (
	JWTSecretMinLength = 32
	RefreshTokenSize   = 64

	MaxPhotoSizeBytes     = 10 * 1024 * 1024
	MaxTitleLength        = 200
	MaxDescriptionLength  = 5000
	MaxCommentLength      = 2000
	MaxListLimit          = 100
	DefaultListLimit      = 10
	DefaultMaxRequestSize = 12 << 20

	DBPoolMaxOpenConns    = 25
	DBPoolMinOpenConns    = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = time.Second
	DBPoolMetricsInterval = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultHTTPPort          = "4000"
	DefaultRequestTimeout    = 5 * time.Second
	DefaultAccessTokenTTL    = 15 * time.Minute
	DefaultRefreshTokenDays  = 30
	DefaultTokenRetention    = 90 * 24 * time.Hour
	DefaultRefreshCookieName = "rtk"
	DefaultOAuthStateTTL     = 10 * time.Minute

	DefaultDownloadURLTTL = 60 * time.Second

	CleanupInterval = time.Hour

	CommentRateLimitPerMinute  = 10
	DownloadRateLimitPerMinute = 30

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
