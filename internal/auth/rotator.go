package auth

import (
	"context"
	"errors"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/observability/metrics"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

// Rotator implements single-use refresh token rotation. Every successful
// rotation revokes the presented token and records its successor hash; the
// revoke is a compare-and-set, so a token can only ever be consumed once.
type Rotator struct {
	tokens TokenRepository
	users  user.Repository
	issuer *Issuer
	idGen  crypto.IDGenerator
	log    *logger.Logger
	now    func() time.Time
}

func NewRotator(tokens TokenRepository, users user.Repository, issuer *Issuer, idGen crypto.IDGenerator, log *logger.Logger) *Rotator {
	return &Rotator{
		tokens: tokens,
		users:  users,
		issuer: issuer,
		idGen:  idGen,
		log:    log,
		now:    time.Now,
	}
}

// Rotate exchanges a presented refresh token for a fresh credential pair.
// expectedUserID is optional; when set, a token belonging to a different user
// is rejected and defensively revoked. Datastore timeouts propagate as-is so
// the handler can answer 504 rather than treating an outage as a bad token.
func (r *Rotator) Rotate(ctx context.Context, plaintext, expectedUserID string, meta ClientMeta) (*Credentials, error) {
	presentedHash := crypto.HashToken(plaintext)

	current, err := r.tokens.FindByTokenHash(ctx, presentedHash)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			metrics.RotationRejected.WithLabelValues(ReasonNotFound).Inc()
		}
		return nil, err
	}

	if current.State.Revoked {
		metrics.RotationRejected.WithLabelValues(ReasonRevoked).Inc()
		r.log.WithFields(ctx, logger.Fields{
			"user_id": current.UserID,
		}).Warn("replay of revoked refresh token")
		return nil, ErrTokenRevoked
	}

	if current.Expired(r.now()) {
		metrics.RotationRejected.WithLabelValues(ReasonExpired).Inc()
		if err := r.tokens.Revoke(ctx, presentedHash); err != nil {
			return nil, err
		}
		return nil, ErrTokenExpired
	}

	if expectedUserID != "" && current.UserID != expectedUserID {
		metrics.RotationRejected.WithLabelValues(ReasonUserMismatch).Inc()
		r.log.WithFields(ctx, logger.Fields{
			"token_user_id":    current.UserID,
			"expected_user_id": expectedUserID,
		}).Warn("refresh token user mismatch")
		if err := r.tokens.Revoke(ctx, presentedHash); err != nil {
			return nil, err
		}
		return nil, ErrUserMismatch
	}

	owner, err := r.users.FindByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			metrics.RotationRejected.WithLabelValues(ReasonUserMismatch).Inc()
			if revokeErr := r.tokens.Revoke(ctx, presentedHash); revokeErr != nil {
				return nil, revokeErr
			}
			return nil, ErrUserMismatch
		}
		r.revokeOnTimeout(err, presentedHash)
		return nil, err
	}

	successorPlaintext, err := crypto.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	successorHash := crypto.HashToken(successorPlaintext)

	// Consume the presented token before the successor exists. Zero rows
	// updated means a concurrent rotation already consumed it.
	revoked, err := r.tokens.RevokeReplacing(ctx, presentedHash, successorHash)
	if err != nil {
		r.revokeOnTimeout(err, presentedHash)
		return nil, err
	}
	if !revoked {
		metrics.RotationRejected.WithLabelValues(ReasonRevoked).Inc()
		return nil, ErrTokenRevoked
	}

	accessToken, err := r.issuer.IssueAccessToken(owner.ID, owner.Role)
	if err != nil {
		return nil, err
	}

	now := r.now()
	successor := &RefreshToken{
		ID:          r.idGen.NewID(),
		UserID:      owner.ID,
		TokenHash:   successorHash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(r.issuer.refreshTokenTTL),
		State:       Active(),
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Fingerprint: meta.Fingerprint,
	}

	if err := r.tokens.Create(ctx, successor); err != nil {
		r.revokeOnTimeout(err, presentedHash)
		return nil, err
	}

	metrics.RefreshTokensRotated.Inc()

	return &Credentials{
		AccessToken:    accessToken,
		RefreshToken:   successorPlaintext,
		RefreshExpires: successor.ExpiresAt,
	}, nil
}

// revokeOnTimeout defensively revokes the presented token when a rotation
// step timed out: the rotation outcome is unknown to the client, so the
// token must not stay replayable. Best effort on a fresh context since the
// request context has already expired.
func (r *Rotator) revokeOnTimeout(err error, presentedHash string) {
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Category() != commonerrors.CategoryTimeout {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if revokeErr := r.tokens.Revoke(ctx, presentedHash); revokeErr != nil {
			r.log.Warnf("defensive revoke after rotation timeout failed: %v", revokeErr)
		}
	}()
}
