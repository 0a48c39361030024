package contact

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/db"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
)

var errContactNotFound = commonerrors.NewDomainError(
	"CONTACT_NOT_FOUND",
	commonerrors.CategoryNotFound,
	http.StatusNotFound,
	"contact message not found",
)

type Message struct {
	ID        string
	Name      string
	Email     string
	Org       string
	Body      string
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, m *Message) error
	List(ctx context.Context, limit, offset int) ([]Message, int64, error)
}

type PostgresRepository struct {
	pool  *pgxpool.Pool
	idGen crypto.IDGenerator
}

func NewPostgresRepository(pool *pgxpool.Pool, idGen crypto.IDGenerator) *PostgresRepository {
	return &PostgresRepository{pool: pool, idGen: idGen}
}

func (r *PostgresRepository) Create(ctx context.Context, m *Message) error {
	start := time.Now()

	if m.ID == "" {
		m.ID = r.idGen.NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO contacts (id, name, email, org, message, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
		m.ID, m.Name, m.Email, m.Org, m.Body, m.CreatedAt,
	)

	return db.HandleExecError(err, "create contact message", start)
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]Message, int64, error) {
	start := time.Now()

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&total)
	if err := db.HandleQueryError(err, errContactNotFound, "count contact messages", start); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, COALESCE(org, ''), message, created_at
		FROM contacts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err := db.HandleQueryError(err, errContactNotFound, "list contact messages", start); err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Org, &m.Body, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan contact row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate contact rows: %w", err)
	}

	return messages, total, nil
}
