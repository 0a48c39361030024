package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/config"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
)

func testCookieConfig() config.CookieConfig {
	return config.CookieConfig{Name: "rtk", SameSite: "lax", HTTPOnly: true}
}

func newTestHandler(tokens *mockTokenRepo, users *mockUserRepo) *Handler {
	idGen := &seqIDGen{}
	issuer := NewIssuer(testSecret, 15*time.Minute, 30*24*time.Hour, tokens, idGen)
	rotator := NewRotator(tokens, users, issuer, idGen, testLogger())
	service := NewService(users, tokens, issuer, rotator, testLogger())
	gate := NewGate(testLogger(),
		NewBearerResolver(issuer, users),
		NewCookieResolver("rtk", tokens, users),
	)
	state := NewStateSigner(testSecret, 10*time.Minute)

	return NewHandler(service, issuer, users, gate, nil, state, testCookieConfig(), testLogger())
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "rtk" {
			return c
		}
	}
	return nil
}

func TestRefreshWithoutCredential(t *testing.T) {
	h := newTestHandler(&mockTokenRepo{}, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	rec := httptest.NewRecorder()

	h.handleRefresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "No refresh token provided" {
		t.Errorf("unexpected error body: %q", body["error"])
	}
}

func TestRefreshRotatesCookie(t *testing.T) {
	plaintext := "valid-refresh-token"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			if hash != crypto.HashToken(plaintext) {
				return nil, ErrTokenNotFound
			}
			return activeToken(plaintext, "user-1"), nil
		},
	}
	h := newTestHandler(tokens, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "rtk", Value: plaintext})
	rec := httptest.NewRecorder()

	h.handleRefresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["accessToken"] == "" {
		t.Error("expected a new access token")
	}

	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatal("expected a new refresh cookie")
	}
	if cookie.Value == plaintext {
		t.Error("cookie was not rotated")
	}
	if !cookie.HttpOnly {
		t.Error("refresh cookie must be http-only")
	}
}

func TestRefreshReplayReturnsRevokedReason(t *testing.T) {
	plaintext := "already-rotated"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			tok := activeToken(plaintext, "user-1")
			tok.State = Revoked("next-hash")
			return tok, nil
		},
	}
	h := newTestHandler(tokens, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "rtk", Value: plaintext})
	rec := httptest.NewRecorder()

	h.handleRefresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["reason"] != ReasonRevoked {
		t.Errorf("expected reason %q, got %q", ReasonRevoked, body["reason"])
	}
}

func TestRefreshViaHeader(t *testing.T) {
	plaintext := "header-token"
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			if hash != crypto.HashToken(plaintext) {
				return nil, ErrTokenNotFound
			}
			return activeToken(plaintext, "user-1"), nil
		},
	}
	h := newTestHandler(tokens, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("X-Refresh-Token", plaintext)
	rec := httptest.NewRecorder()

	h.handleRefresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for header token, got %d", rec.Code)
	}
}

func TestRefreshUnknownTokenReason(t *testing.T) {
	tokens := &mockTokenRepo{
		findByTokenHashFn: func(ctx context.Context, hash string) (*RefreshToken, error) {
			return nil, ErrTokenNotFound
		},
	}
	h := newTestHandler(tokens, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "rtk", Value: "whatever"})
	rec := httptest.NewRecorder()

	h.handleRefresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["reason"] != ReasonNotFound {
		t.Errorf("expected reason %q, got %q", ReasonNotFound, body["reason"])
	}
}

func TestLogoutWithoutCookie(t *testing.T) {
	h := newTestHandler(&mockTokenRepo{}, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()

	h.handleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body["ok"] {
		t.Error("expected ok:true")
	}

	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatal("expected the cookie to be cleared")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Error("expected an expired empty cookie")
	}
}

func TestLogoutRevokesPresentedToken(t *testing.T) {
	plaintext := "live-token"
	tokens := &mockTokenRepo{}
	h := newTestHandler(tokens, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "rtk", Value: plaintext})
	rec := httptest.NewRecorder()

	h.handleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(tokens.revoked) != 1 || tokens.revoked[0] != crypto.HashToken(plaintext) {
		t.Errorf("expected presented token to be revoked, got %v", tokens.revoked)
	}
	if !strings.Contains(rec.Body.String(), "true") {
		t.Error("expected ok:true body")
	}
}
