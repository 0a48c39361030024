package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_issued_total",
			Help: "Total number of refresh tokens issued",
		},
	)

	RefreshTokensRotated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_rotated_total",
			Help: "Total number of successful refresh token rotations",
		},
	)

	RefreshTokensRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_revoked_total",
			Help: "Total number of refresh tokens revoked",
		},
	)

	RotationRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_token_rotation_rejected_total",
			Help: "Total number of rejected rotation attempts by reason",
		},
		[]string{"reason"},
	)

	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	AuthGateResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_gate_resolved_total",
			Help: "Total number of auth gate resolutions by credential source",
		},
		[]string{"source"},
	)

	AuthGateRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_gate_rejected_total",
			Help: "Total number of auth gate rejections by reason",
		},
		[]string{"reason"},
	)

	OAuthLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_logins_total",
			Help: "Total number of completed OAuth logins by provider",
		},
		[]string{"provider"},
	)

	TokensCleanupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_cleanup_deleted_total",
			Help: "Total number of stale refresh tokens deleted during cleanup",
		},
	)
)
