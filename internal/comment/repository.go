package comment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/db"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
)

var ErrCommentNotFound = commonerrors.NewDomainError(
	"COMMENT_NOT_FOUND",
	commonerrors.CategoryNotFound,
	http.StatusNotFound,
	"comment not found",
)

var ErrReportMissing = commonerrors.NewDomainError(
	"REPORT_NOT_FOUND",
	commonerrors.CategoryNotFound,
	http.StatusNotFound,
	"report not found",
)

const foreignKeyViolation = "23503"

type Repository interface {
	Create(ctx context.Context, c *Comment) error
	FindByID(ctx context.Context, id string) (*Comment, error)
	ListByReport(ctx context.Context, reportID string, limit, offset int) ([]Comment, int64, error)
	Delete(ctx context.Context, id string) error
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, c *Comment) error {
	start := time.Now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO comments (id, report_id, user_id, name, body, created_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, ''), $5, $6)`,
		c.ID, c.ReportID, c.UserID, c.Name, c.Body, c.CreatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		db.MeasureQueryDuration("create comment", start)
		return ErrReportMissing
	}

	return db.HandleExecError(err, "create comment", start)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Comment, error) {
	start := time.Now()

	var c Comment
	err := r.pool.QueryRow(ctx, `
		SELECT id, report_id, COALESCE(user_id::text, ''), COALESCE(name, ''), body, created_at
		FROM comments
		WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.ReportID, &c.UserID, &c.Name, &c.Body, &c.CreatedAt)

	if err := db.HandleQueryError(err, ErrCommentNotFound, "find comment by id", start); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *PostgresRepository) ListByReport(ctx context.Context, reportID string, limit, offset int) ([]Comment, int64, error) {
	start := time.Now()

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE report_id = $1`, reportID).Scan(&total)
	if err := db.HandleQueryError(err, ErrCommentNotFound, "count comments", start); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, report_id, COALESCE(user_id::text, ''), COALESCE(name, ''), body, created_at
		FROM comments
		WHERE report_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`,
		reportID, limit, offset,
	)
	if err := db.HandleQueryError(err, ErrCommentNotFound, "list comments", start); err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ReportID, &c.UserID, &c.Name, &c.Body, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate comment rows: %w", err)
	}

	return comments, total, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()

	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)

	if err := db.HandleExecError(err, "delete comment", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}

	return nil
}
