package auth

import "time"

// timeNow is swapped in tests.
var timeNow = time.Now

// RotationState is the lifecycle of a refresh token. A token is either active
// or revoked; a revoked token may carry the hash of its successor, which
// preserves the rotation chain for audit.
type RotationState struct {
	Revoked       bool
	SuccessorHash string
}

func Active() RotationState {
	return RotationState{}
}

func Revoked(successorHash string) RotationState {
	return RotationState{Revoked: true, SuccessorHash: successorHash}
}

// RefreshToken is the persisted form of a refresh credential. Only the
// SHA-256 hash of the plaintext is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	State     RotationState

	IP          string
	UserAgent   string
	Fingerprint string
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Identity is the resolved caller placed on the request context by the auth
// gate.
type Identity struct {
	UserID string
	Role   string
	Source string
}

const (
	SourceBearer = "bearer"
	SourceCookie = "cookie"
)

// ClientMeta captures where a credential request came from. Stored alongside
// each refresh token for audit.
type ClientMeta struct {
	IP          string
	UserAgent   string
	Fingerprint string
}

// Credentials is what the issuer hands back after login or rotation. The
// refresh token is plaintext here and must only ever travel in the cookie.
type Credentials struct {
	AccessToken    string
	RefreshToken   string
	RefreshExpires time.Time
}
