package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/db"
)

type TokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeReplacing(ctx context.Context, tokenHash, successorHash string) (bool, error)
	Revoke(ctx context.Context, tokenHash string) error
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

func (r *PostgresTokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	start := time.Now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, created_at, expires_at, revoked, replaced_by_token, ip, user_agent, fingerprint)
		VALUES ($1, $2, $3, $4, $5, FALSE, NULL, $6, $7, $8)`,
		token.ID, token.UserID, token.TokenHash, token.CreatedAt, token.ExpiresAt,
		token.IP, token.UserAgent, token.Fingerprint,
	)

	return db.HandleExecError(err, "create refresh token", start)
}

func (r *PostgresTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	start := time.Now()

	var (
		t          RefreshToken
		replacedBy *string
		revoked    bool
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, created_at, expires_at, revoked, replaced_by_token, ip, user_agent, fingerprint
		FROM refresh_tokens
		WHERE token_hash = $1`,
		tokenHash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &revoked, &replacedBy, &t.IP, &t.UserAgent, &t.Fingerprint)

	if err := db.HandleQueryError(err, ErrTokenNotFound, "find refresh token by hash", start); err != nil {
		return nil, err
	}

	if revoked {
		successor := ""
		if replacedBy != nil {
			successor = *replacedBy
		}
		t.State = Revoked(successor)
	} else {
		t.State = Active()
	}

	return &t, nil
}

// RevokeReplacing atomically marks a token revoked and records its successor.
// The WHERE revoked = FALSE guard makes the revoke a compare-and-set: when two
// rotations race on the same token, exactly one sees a row updated and the
// other learns the token was already consumed.
func (r *PostgresTokenRepository) RevokeReplacing(ctx context.Context, tokenHash, successorHash string) (bool, error) {
	start := time.Now()

	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE, replaced_by_token = $2
		WHERE token_hash = $1 AND revoked = FALSE`,
		tokenHash, successorHash,
	)

	if err := db.HandleExecError(err, "revoke refresh token with successor", start); err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// Revoke is the terminal revoke used by logout and by defensive revocation.
// Idempotent: revoking an already revoked or unknown token is not an error.
func (r *PostgresTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	start := time.Now()

	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token_hash = $1 AND revoked = FALSE`,
		tokenHash,
	)

	return db.HandleExecError(err, "revoke refresh token", start)
}

func (r *PostgresTokenRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1`,
		cutoff,
	)

	if err := db.HandleExecError(err, "delete stale refresh tokens", start); err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
