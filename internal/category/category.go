package category

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/db"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
)

var ErrCategoryNotFound = commonerrors.NewDomainError(
	"CATEGORY_NOT_FOUND",
	commonerrors.CategoryNotFound,
	http.StatusNotFound,
	"category not found",
)

var ErrCategoryExists = commonerrors.NewDomainError(
	"CATEGORY_EXISTS",
	commonerrors.CategoryConflict,
	http.StatusConflict,
	"category key already exists",
)

const uniqueViolation = "23505"

type Category struct {
	ID          string
	Key         string
	Title       string
	Description string
	Ord         int
}

type Repository interface {
	Create(ctx context.Context, c *Category) error
	List(ctx context.Context) ([]Category, error)
	Delete(ctx context.Context, key string) error
}

type PostgresRepository struct {
	pool  *pgxpool.Pool
	idGen crypto.IDGenerator
}

func NewPostgresRepository(pool *pgxpool.Pool, idGen crypto.IDGenerator) *PostgresRepository {
	return &PostgresRepository{pool: pool, idGen: idGen}
}

func (r *PostgresRepository) Create(ctx context.Context, c *Category) error {
	start := time.Now()

	if c.ID == "" {
		c.ID = r.idGen.NewID()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, key, title, description, ord)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
		c.ID, c.Key, c.Title, c.Description, c.Ord,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		db.MeasureQueryDuration("create category", start)
		return ErrCategoryExists
	}

	return db.HandleExecError(err, "create category", start)
}

func (r *PostgresRepository) List(ctx context.Context) ([]Category, error) {
	start := time.Now()

	rows, err := r.pool.Query(ctx, `
		SELECT id, key, title, COALESCE(description, ''), ord
		FROM categories
		ORDER BY ord, title`,
	)
	if err := db.HandleQueryError(err, ErrCategoryNotFound, "list categories", start); err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Key, &c.Title, &c.Description, &c.Ord); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}

	return categories, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	start := time.Now()

	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE key = $1`, key)

	if err := db.HandleExecError(err, "delete category", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}
