package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	"github.com/AlibekovAA/civic-reports-backend/internal/observability/metrics"
)

// Issuer mints access/refresh credential pairs. Access tokens are short-lived
// HS256 JWTs; refresh tokens are opaque random values persisted by hash.
type Issuer struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	tokens          TokenRepository
	idGen           crypto.IDGenerator
	now             func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, tokens TokenRepository, idGen crypto.IDGenerator) *Issuer {
	return &Issuer{
		secret:          []byte(secret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		tokens:          tokens,
		idGen:           idGen,
		now:             time.Now,
	}
}

func (i *Issuer) IssueAccessToken(userID, role string) (string, error) {
	now := i.now()

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"jti":  i.idGen.NewID(),
		"iat":  now.Unix(),
		"exp":  now.Add(i.accessTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	metrics.AccessTokensIssued.Inc()

	return signed, nil
}

// IssueCredentials mints a full pair and persists the refresh token. The
// plaintext refresh token leaves this function exactly once, in the returned
// Credentials.
func (i *Issuer) IssueCredentials(ctx context.Context, userID, role string, meta ClientMeta) (*Credentials, error) {
	if userID == "" {
		return nil, commonerrors.ErrInvalidInput
	}

	accessToken, err := i.IssueAccessToken(userID, role)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := i.now()
	record := &RefreshToken{
		ID:          i.idGen.NewID(),
		UserID:      userID,
		TokenHash:   crypto.HashToken(plaintext),
		CreatedAt:   now,
		ExpiresAt:   now.Add(i.refreshTokenTTL),
		State:       Active(),
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Fingerprint: meta.Fingerprint,
	}

	if err := i.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	metrics.RefreshTokensIssued.Inc()

	return &Credentials{
		AccessToken:    accessToken,
		RefreshToken:   plaintext,
		RefreshExpires: record.ExpiresAt,
	}, nil
}

// VerifyAccessToken parses and validates a bearer JWT, returning the subject
// and role claims.
func (i *Issuer) VerifyAccessToken(tokenString string) (userID, role string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidAccessToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidAccessToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", "", ErrInvalidAccessToken
	}
	roleClaim, _ := claims["role"].(string)

	return sub, roleClaim, nil
}
