package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

func TestIssueAccessTokenClaims(t *testing.T) {
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, &mockTokenRepo{}, &seqIDGen{})

	signed, err := issuer.IssueAccessToken("user-1", user.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	token, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}

	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != "user-1" {
		t.Errorf("sub = %v", claims["sub"])
	}
	if claims["role"] != user.RoleAdmin {
		t.Errorf("role = %v", claims["role"])
	}
	if claims["jti"] == "" || claims["jti"] == nil {
		t.Error("missing jti claim")
	}

	exp, _ := claims.GetExpirationTime()
	iat, _ := claims.GetIssuedAt()
	if exp.Sub(iat.Time) != 15*time.Minute {
		t.Errorf("unexpected ttl: %v", exp.Sub(iat.Time))
	}
}

func TestVerifyAccessTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, &mockTokenRepo{}, &seqIDGen{})
	other := NewIssuer("another-secret-another-secret-32", 15*time.Minute, time.Hour, &mockTokenRepo{}, &seqIDGen{})

	signed, _ := issuer.IssueAccessToken("user-1", user.RoleCitizen)

	if _, _, err := other.VerifyAccessToken(signed); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

func TestVerifyAccessTokenRejectsExpired(t *testing.T) {
	issuer := NewIssuer(testSecret, -time.Minute, time.Hour, &mockTokenRepo{}, &seqIDGen{})

	signed, _ := issuer.IssueAccessToken("user-1", user.RoleCitizen)

	if _, _, err := issuer.VerifyAccessToken(signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestIssueCredentialsPersistsHashOnly(t *testing.T) {
	tokens := &mockTokenRepo{}
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, tokens, &seqIDGen{})

	creds, err := issuer.IssueCredentials(context.Background(), "user-1", user.RoleCitizen, ClientMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatal(err)
	}

	if len(creds.RefreshToken) != 128 {
		t.Errorf("expected 128 hex chars of refresh token, got %d", len(creds.RefreshToken))
	}
	if len(tokens.created) != 1 {
		t.Fatalf("expected 1 persisted token, got %d", len(tokens.created))
	}

	record := tokens.created[0]
	if record.TokenHash == creds.RefreshToken {
		t.Error("plaintext must never be persisted")
	}
	if record.TokenHash != crypto.HashToken(creds.RefreshToken) {
		t.Error("persisted hash does not match plaintext digest")
	}
	if record.IP != "10.0.0.1" {
		t.Error("client metadata not persisted")
	}
	if record.State.Revoked {
		t.Error("new token must start active")
	}
}
