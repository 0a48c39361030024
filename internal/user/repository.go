package user

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/db"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	UpsertByProvider(ctx context.Context, profile Profile) (*User, error)
}

type PostgresRepository struct {
	pool  *pgxpool.Pool
	idGen crypto.IDGenerator
}

func NewPostgresRepository(pool *pgxpool.Pool, idGen crypto.IDGenerator) *PostgresRepository {
	return &PostgresRepository{pool: pool, idGen: idGen}
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	start := time.Now()

	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, provider, provider_id, email, name, avatar, role, created_at, updated_at
		FROM users
		WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Provider, &u.ProviderID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	if err := db.HandleQueryError(err, commonerrors.ErrUserNotFound, "find user by id", start); err != nil {
		return nil, err
	}

	return &u, nil
}

// UpsertByProvider reconciles an OAuth profile with the users table. The
// (provider, provider_id) pair is the identity key; email and avatar are
// refreshed on every login.
func (r *PostgresRepository) UpsertByProvider(ctx context.Context, profile Profile) (*User, error) {
	start := time.Now()

	var u User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, provider, provider_id, email, name, avatar, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider, provider_id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    avatar = EXCLUDED.avatar,
		    updated_at = NOW()
		RETURNING id, provider, provider_id, email, name, avatar, role, created_at, updated_at`,
		r.idGen.NewID(), profile.Provider, profile.ProviderID, profile.Email, profile.Name, profile.Avatar, RoleCitizen,
	).Scan(&u.ID, &u.Provider, &u.ProviderID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	if err := db.HandleQueryError(err, commonerrors.ErrUserNotFound, "upsert user by provider", start); err != nil {
		return nil, err
	}

	return &u, nil
}
