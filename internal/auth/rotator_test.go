package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestRotator(tokens *mockTokenRepo, users *mockUserRepo) *Rotator {
	idGen := &seqIDGen{}
	issuer := NewIssuer(testSecret, 15*time.Minute, 30*24*time.Hour, tokens, idGen)
	return NewRotator(tokens, users, issuer, idGen, testLogger())
}

func activeToken(plaintext, userID string) *RefreshToken {
	return &RefreshToken{
		ID:        "tok-1",
		UserID:    userID,
		TokenHash: crypto.HashToken(plaintext),
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(time.Hour),
		State:     Active(),
	}
}

func TestRotateSuccess(t *testing.T) {
	plaintext := "old-token"
	var revokedWith string

	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			if hash != crypto.HashToken(plaintext) {
				t.Fatalf("looked up unexpected hash %s", hash)
			}
			return activeToken(plaintext, "user-1"), nil
		},
		revokeReplacingFn: func(ctx context.Context, hash, successor string) (bool, error) {
			revokedWith = successor
			return true, nil
		},
	}
	users := &mockUserRepo{}

	rotator := newTestRotator(tokens, users)

	creds, err := rotator.Rotate(context.Background(), plaintext, "", ClientMeta{})
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}

	if creds.AccessToken == "" {
		t.Error("expected a new access token")
	}
	if creds.RefreshToken == "" || creds.RefreshToken == plaintext {
		t.Error("expected a fresh refresh token")
	}
	if len(tokens.created) != 1 {
		t.Fatalf("expected 1 created token, got %d", len(tokens.created))
	}
	if tokens.created[0].TokenHash != crypto.HashToken(creds.RefreshToken) {
		t.Error("persisted hash does not match returned plaintext")
	}
	if revokedWith != tokens.created[0].TokenHash {
		t.Error("old token's successor does not point at the new token's hash")
	}
}

func TestRotateNotFound(t *testing.T) {
	tokens := &mockTokenRepo{}
	rotator := newTestRotator(tokens, &mockUserRepo{})

	_, err := rotator.Rotate(context.Background(), "unknown", "", ClientMeta{})
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if RejectionReason(err) != ReasonNotFound {
		t.Errorf("expected reason %q, got %q", ReasonNotFound, RejectionReason(err))
	}
}

func TestRotateRevokedReplay(t *testing.T) {
	plaintext := "stolen-token"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			tok := activeToken(plaintext, "user-1")
			tok.State = Revoked("successor-hash")
			return tok, nil
		},
	}
	rotator := newTestRotator(tokens, &mockUserRepo{})

	_, err := rotator.Rotate(context.Background(), plaintext, "", ClientMeta{})
	if !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
	if len(tokens.created) != 0 {
		t.Error("no successor must be created on replay")
	}
}

func TestRotateExpiredRevokesDefensively(t *testing.T) {
	plaintext := "old-token"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			tok := activeToken(plaintext, "user-1")
			tok.ExpiresAt = time.Now().Add(-time.Minute)
			return tok, nil
		},
	}
	rotator := newTestRotator(tokens, &mockUserRepo{})

	_, err := rotator.Rotate(context.Background(), plaintext, "", ClientMeta{})
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if len(tokens.revoked) != 1 {
		t.Fatalf("expected expired token to be revoked, got %d revokes", len(tokens.revoked))
	}
	if tokens.revoked[0] != crypto.HashToken(plaintext) {
		t.Error("revoked the wrong token")
	}
}

func TestRotateUserMismatch(t *testing.T) {
	plaintext := "old-token"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			return activeToken(plaintext, "user-1"), nil
		},
	}
	rotator := newTestRotator(tokens, &mockUserRepo{})

	_, err := rotator.Rotate(context.Background(), plaintext, "someone-else", ClientMeta{})
	if !errors.Is(err, ErrUserMismatch) {
		t.Fatalf("expected ErrUserMismatch, got %v", err)
	}
	if len(tokens.revoked) != 1 {
		t.Error("expected mismatched token to be defensively revoked")
	}
}

func TestRotateOwnerGone(t *testing.T) {
	plaintext := "old-token"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			return activeToken(plaintext, "deleted-user"), nil
		},
	}
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*user.User, error) {
			return nil, commonerrors.ErrUserNotFound
		},
	}
	rotator := newTestRotator(tokens, users)

	_, err := rotator.Rotate(context.Background(), plaintext, "", ClientMeta{})
	if !errors.Is(err, ErrUserMismatch) {
		t.Fatalf("expected ErrUserMismatch, got %v", err)
	}
	if len(tokens.revoked) != 1 {
		t.Error("expected orphaned token to be revoked")
	}
}

func TestRotateConcurrentConsumption(t *testing.T) {
	plaintext := "contested-token"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			return activeToken(plaintext, "user-1"), nil
		},
		revokeReplacingFn: func(ctx context.Context, hash, successor string) (bool, error) {
			// Another request consumed the token between lookup and revoke.
			return false, nil
		},
	}
	rotator := newTestRotator(tokens, &mockUserRepo{})

	_, err := rotator.Rotate(context.Background(), plaintext, "", ClientMeta{})
	if !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked on lost race, got %v", err)
	}
	if len(tokens.created) != 0 {
		t.Error("loser of the race must not create a successor")
	}
}

func TestRotateDatastoreTimeoutPropagates(t *testing.T) {
	timeout := commonerrors.ErrDatastoreTimeout.WithCause(context.DeadlineExceeded)
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			return nil, timeout
		},
	}
	rotator := newTestRotator(tokens, &mockUserRepo{})

	_, err := rotator.Rotate(context.Background(), "any", "", ClientMeta{})
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Category() != commonerrors.CategoryTimeout {
		t.Fatalf("expected timeout category error, got %v", err)
	}
	if RejectionReason(err) != "" {
		t.Error("timeout must not map to a rotation rejection reason")
	}
}
