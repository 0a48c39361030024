package auth

import (
	"context"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

type mockTokenRepo struct {
	createFn          func(ctx context.Context, token *RefreshToken) error
	findByTokenHashFn func(ctx context.Context, tokenHash string) (*RefreshToken, error)
	revokeReplacingFn func(ctx context.Context, tokenHash, successorHash string) (bool, error)
	revokeFn          func(ctx context.Context, tokenHash string) error
	deleteStaleFn     func(ctx context.Context, cutoff time.Time) (int64, error)

	created []*RefreshToken
	revoked []string
}

func (m *mockTokenRepo) Create(ctx context.Context, token *RefreshToken) error {
	m.created = append(m.created, token)
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	return nil
}

func (m *mockTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	if m.findByTokenHashFn != nil {
		return m.findByTokenHashFn(ctx, tokenHash)
	}
	return nil, ErrTokenNotFound
}

func (m *mockTokenRepo) RevokeReplacing(ctx context.Context, tokenHash, successorHash string) (bool, error) {
	if m.revokeReplacingFn != nil {
		return m.revokeReplacingFn(ctx, tokenHash, successorHash)
	}
	return true, nil
}

func (m *mockTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	m.revoked = append(m.revoked, tokenHash)
	if m.revokeFn != nil {
		return m.revokeFn(ctx, tokenHash)
	}
	return nil
}

func (m *mockTokenRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deleteStaleFn != nil {
		return m.deleteStaleFn(ctx, cutoff)
	}
	return 0, nil
}

type mockUserRepo struct {
	findByIDFn         func(ctx context.Context, id string) (*user.User, error)
	upsertByProviderFn func(ctx context.Context, profile user.Profile) (*user.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &user.User{ID: id, Role: user.RoleCitizen}, nil
}

func (m *mockUserRepo) UpsertByProvider(ctx context.Context, profile user.Profile) (*user.User, error) {
	if m.upsertByProviderFn != nil {
		return m.upsertByProviderFn(ctx, profile)
	}
	return &user.User{ID: "user-1", Role: user.RoleCitizen}, nil
}

type seqIDGen struct {
	n int
}

func (g *seqIDGen) NewID() string {
	g.n++
	return "id-" + string(rune('0'+g.n))
}

func testLogger() *logger.Logger {
	log, _ := logger.New("", "test", "CRITICAL")
	return log
}
