package auth

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
)

// Rotation rejection reasons. Reported in the 401 body and as a metric label
// so replay attempts are distinguishable from ordinary expiry.
const (
	ReasonNotFound     = "not_found"
	ReasonRevoked      = "revoked"
	ReasonExpired      = "expired"
	ReasonUserMismatch = "user_mismatch"
)

var (
	ErrNoRefreshToken = commonerrors.NewDomainError(
		"NO_REFRESH_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"No refresh token provided",
	)

	ErrTokenNotFound = commonerrors.NewDomainError(
		"REFRESH_TOKEN_NOT_FOUND",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid refresh token",
	)

	ErrTokenRevoked = commonerrors.NewDomainError(
		"REFRESH_TOKEN_REVOKED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token revoked",
	)

	ErrTokenExpired = commonerrors.NewDomainError(
		"REFRESH_TOKEN_EXPIRED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token expired",
	)

	ErrUserMismatch = commonerrors.NewDomainError(
		"REFRESH_TOKEN_USER_MISMATCH",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token does not belong to user",
	)

	ErrInvalidAccessToken = commonerrors.NewDomainError(
		"INVALID_ACCESS_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid access token",
	)

	ErrOAuthStateInvalid = commonerrors.NewDomainError(
		"OAUTH_STATE_INVALID",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"oauth state invalid or expired",
	)

	ErrOAuthExchangeFailed = commonerrors.NewDomainError(
		"OAUTH_EXCHANGE_FAILED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"oauth code exchange failed",
	)
)

// RejectionReason maps a rotation error to its wire reason. Unknown errors
// yield an empty reason so the response body stays quiet about them.
func RejectionReason(err error) string {
	de, ok := commonerrors.AsDomainError(err)
	if !ok {
		return ""
	}
	switch de.Code() {
	case "REFRESH_TOKEN_NOT_FOUND":
		return ReasonNotFound
	case "REFRESH_TOKEN_REVOKED":
		return ReasonRevoked
	case "REFRESH_TOKEN_EXPIRED":
		return ReasonExpired
	case "REFRESH_TOKEN_USER_MISMATCH":
		return ReasonUserMismatch
	default:
		return ""
	}
}
