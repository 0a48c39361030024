package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

func newTestGate(tokens *mockTokenRepo, users *mockUserRepo, issuer *Issuer) *Gate {
	return NewGate(testLogger(),
		NewBearerResolver(issuer, users),
		NewCookieResolver("rtk", tokens, users),
	)
}

func okHandler(t *testing.T, want *Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("identity missing from context")
		}
		if want != nil {
			if identity.UserID != want.UserID || identity.Source != want.Source {
				t.Errorf("got identity %+v, want %+v", identity, want)
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

func TestGateBearerResolves(t *testing.T) {
	tokens := &mockTokenRepo{}
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*user.User, error) {
			return &user.User{ID: id, Role: user.RoleCitizen}, nil
		},
	}
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, tokens, &seqIDGen{})
	gate := newTestGate(tokens, users, issuer)

	access, err := issuer.IssueAccessToken("user-1", user.RoleCitizen)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()

	gate.Require()(okHandler(t, &Identity{UserID: "user-1", Source: SourceBearer}))(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGateUnknownBearerSubject(t *testing.T) {
	tokens := &mockTokenRepo{}
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*user.User, error) {
			return nil, commonerrors.ErrUserNotFound
		},
	}
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, tokens, &seqIDGen{})
	gate := newTestGate(tokens, users, issuer)

	access, _ := issuer.IssueAccessToken("ghost", user.RoleCitizen)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()

	gate.Require()(okHandler(t, nil))(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown subject, got %d", rec.Code)
	}
}

func TestGateExpiredBearerFallsBackToCookie(t *testing.T) {
	plaintext := "cookie-token"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			if hash != crypto.HashToken(plaintext) {
				return nil, ErrTokenNotFound
			}
			return &RefreshToken{
				UserID:    "user-2",
				TokenHash: hash,
				ExpiresAt: time.Now().Add(time.Hour),
				State:     Active(),
			}, nil
		},
	}
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*user.User, error) {
			return &user.User{ID: id, Role: user.RoleCitizen}, nil
		},
	}

	expiredIssuer := NewIssuer(testSecret, -time.Minute, time.Hour, tokens, &seqIDGen{})
	gate := newTestGate(tokens, users, expiredIssuer)

	access, _ := expiredIssuer.IssueAccessToken("user-2", user.RoleCitizen)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	req.AddCookie(&http.Cookie{Name: "rtk", Value: plaintext})
	rec := httptest.NewRecorder()

	gate.Require()(okHandler(t, &Identity{UserID: "user-2", Source: SourceCookie}))(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected cookie fallback to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGateExpiredBearerNoCookie(t *testing.T) {
	tokens := &mockTokenRepo{}
	users := &mockUserRepo{}
	expiredIssuer := NewIssuer(testSecret, -time.Minute, time.Hour, tokens, &seqIDGen{})
	gate := newTestGate(tokens, users, expiredIssuer)

	access, _ := expiredIssuer.IssueAccessToken("user-1", user.RoleCitizen)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()

	gate.Require()(okHandler(t, nil))(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGateRevokedCookieRejected(t *testing.T) {
	plaintext := "revoked-cookie"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			return &RefreshToken{
				UserID:    "user-1",
				TokenHash: hash,
				ExpiresAt: time.Now().Add(time.Hour),
				State:     Revoked("next-hash"),
			}, nil
		},
	}
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, tokens, &seqIDGen{})
	gate := newTestGate(tokens, &mockUserRepo{}, issuer)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "rtk", Value: plaintext})
	rec := httptest.NewRecorder()

	gate.Require()(okHandler(t, nil))(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked cookie, got %d", rec.Code)
	}
}

func TestGateTimeoutIs504(t *testing.T) {
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			return nil, commonerrors.ErrDatastoreTimeout.WithCause(context.DeadlineExceeded)
		},
	}
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, tokens, &seqIDGen{})
	gate := newTestGate(tokens, &mockUserRepo{}, issuer)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "rtk", Value: "anything"})
	rec := httptest.NewRecorder()

	gate.Require()(okHandler(t, nil))(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 on datastore timeout, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] == "unauthorized" {
		t.Error("timeout must not masquerade as unauthorized")
	}
}

func TestGateRoleCheckAfterResolution(t *testing.T) {
	tokens := &mockTokenRepo{}
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*user.User, error) {
			return &user.User{ID: id, Role: user.RoleCitizen}, nil
		},
	}
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, tokens, &seqIDGen{})
	gate := newTestGate(tokens, users, issuer)

	access, _ := issuer.IssueAccessToken("user-1", user.RoleCitizen)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()

	gate.Require(user.RoleAdmin)(okHandler(t, nil))(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for insufficient role, got %d", rec.Code)
	}
}

func TestGateNoCredentials(t *testing.T) {
	tokens := &mockTokenRepo{}
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, tokens, &seqIDGen{})
	gate := newTestGate(tokens, &mockUserRepo{}, issuer)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	gate.Require()(okHandler(t, nil))(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with no credentials, got %d", rec.Code)
	}
}
