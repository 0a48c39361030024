package auth

import (
	"context"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/observability/metrics"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

// Service is the credential lifecycle: login after an OAuth exchange, refresh
// via rotation, logout via revocation.
type Service struct {
	users   user.Repository
	tokens  TokenRepository
	issuer  *Issuer
	rotator *Rotator
	log     *logger.Logger
}

func NewService(users user.Repository, tokens TokenRepository, issuer *Issuer, rotator *Rotator, log *logger.Logger) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		issuer:  issuer,
		rotator: rotator,
		log:     log,
	}
}

// Login reconciles an OAuth profile with the user store and issues a fresh
// credential pair.
func (s *Service) Login(ctx context.Context, profile user.Profile, meta ClientMeta) (*user.User, *Credentials, error) {
	u, err := s.users.UpsertByProvider(ctx, profile)
	if err != nil {
		return nil, nil, err
	}

	creds, err := s.issuer.IssueCredentials(ctx, u.ID, u.Role, meta)
	if err != nil {
		return nil, nil, err
	}

	metrics.OAuthLogins.WithLabelValues(profile.Provider).Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id":  u.ID,
		"provider": profile.Provider,
	}).Info("user logged in")

	return u, creds, nil
}

func (s *Service) Refresh(ctx context.Context, plaintext, expectedUserID string, meta ClientMeta) (*Credentials, error) {
	return s.rotator.Rotate(ctx, plaintext, expectedUserID, meta)
}

// Logout revokes the presented refresh token. Best effort: an unknown or
// already revoked token is not an error, the caller ends up logged out either
// way.
func (s *Service) Logout(ctx context.Context, plaintext string) error {
	if plaintext == "" {
		return nil
	}

	if err := s.tokens.Revoke(ctx, crypto.HashToken(plaintext)); err != nil {
		return err
	}

	metrics.RefreshTokensRevoked.Inc()

	return nil
}
