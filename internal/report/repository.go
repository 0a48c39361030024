package report

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/db"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
)

var ErrReportNotFound = commonerrors.NewDomainError(
	"REPORT_NOT_FOUND",
	commonerrors.CategoryNotFound,
	http.StatusNotFound,
	"report not found",
)

var ErrPhotoNotFound = commonerrors.NewDomainError(
	"PHOTO_NOT_FOUND",
	commonerrors.CategoryNotFound,
	http.StatusNotFound,
	"photo not found",
)

type Repository interface {
	Create(ctx context.Context, r *Report) error
	FindByID(ctx context.Context, id string, includeDeleted bool) (*Report, error)
	List(ctx context.Context, filter ListFilter) ([]Report, int64, error)
	Update(ctx context.Context, r *Report) error
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error

	AddPhoto(ctx context.Context, p *Photo) error
	FindPhoto(ctx context.Context, reportID, photoID string) (*Photo, error)
	ListPhotos(ctx context.Context, reportID string) ([]Photo, error)
	DeletePhoto(ctx context.Context, reportID, photoID string) error

	AddAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, reportID string) ([]AuditEntry, error)
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, rep *Report) error {
	start := time.Now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO reports (id, title, description, reporter_id, lng, lat, categories, status, priority)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)`,
		rep.ID, rep.Title, rep.Description, rep.ReporterID, rep.Lng, rep.Lat, rep.Categories, rep.Status, rep.Priority,
	)

	return db.HandleExecError(err, "create report", start)
}

const reportColumns = `id, title, COALESCE(description, ''), COALESCE(reporter_id::text, ''), lng, lat, categories, status, priority, created_at, updated_at, deleted_at`

func (r *PostgresRepository) FindByID(ctx context.Context, id string, includeDeleted bool) (*Report, error) {
	start := time.Now()

	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}

	var rep Report
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rep.ID, &rep.Title, &rep.Description, &rep.ReporterID,
		&rep.Lng, &rep.Lat, &rep.Categories, &rep.Status, &rep.Priority,
		&rep.CreatedAt, &rep.UpdatedAt, &rep.DeletedAt,
	)

	if err := db.HandleQueryError(err, ErrReportNotFound, "find report by id", start); err != nil {
		return nil, err
	}

	return &rep, nil
}

// List applies filters with positional arguments built incrementally, the
// count query sharing the same WHERE clause.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]Report, int64, error) {
	start := time.Now()

	var (
		where []string
		args  []any
	)

	if !filter.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("$%d = ANY(categories)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ReporterID != "" {
		args = append(args, filter.ReporterID)
		where = append(where, fmt.Sprintf("reporter_id = $%d", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM reports"+whereClause, args...).Scan(&total)
	if err := db.HandleQueryError(err, ErrReportNotFound, "count reports", start); err != nil {
		return nil, 0, err
	}

	orderBy := sortColumn(filter.Sort)
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM reports%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		reportColumns, whereClause, orderBy, direction, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err := db.HandleQueryError(err, ErrReportNotFound, "list reports", start); err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(
			&rep.ID, &rep.Title, &rep.Description, &rep.ReporterID,
			&rep.Lng, &rep.Lat, &rep.Categories, &rep.Status, &rep.Priority,
			&rep.CreatedAt, &rep.UpdatedAt, &rep.DeletedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate report rows: %w", err)
	}

	return reports, total, nil
}

// sortColumn whitelists sortable columns; anything else falls back to
// created_at so user input never reaches the ORDER BY clause directly.
func sortColumn(sort string) string {
	switch sort {
	case "updated_at", "priority", "status", "created_at":
		return sort
	default:
		return "created_at"
	}
}

func (r *PostgresRepository) Update(ctx context.Context, rep *Report) error {
	start := time.Now()

	tag, err := r.pool.Exec(ctx, `
		UPDATE reports
		SET title = $2, description = $3, lng = $4, lat = $5, categories = $6, status = $7, priority = $8, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		rep.ID, rep.Title, rep.Description, rep.Lng, rep.Lat, rep.Categories, rep.Status, rep.Priority,
	)

	if err := db.HandleExecError(err, "update report", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	return nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	start := time.Now()

	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)

	if err := db.HandleExecError(err, "soft delete report", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	return nil
}

func (r *PostgresRepository) HardDelete(ctx context.Context, id string) error {
	start := time.Now()

	tag, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)

	if err := db.HandleExecError(err, "hard delete report", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	return nil
}

func (r *PostgresRepository) AddPhoto(ctx context.Context, p *Photo) error {
	start := time.Now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO report_photos (id, report_id, storage, key, url, mime, size, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ReportID, p.Storage, p.Key, p.URL, p.Mime, p.Size, p.UploadedAt,
	)

	return db.HandleExecError(err, "add report photo", start)
}

func (r *PostgresRepository) FindPhoto(ctx context.Context, reportID, photoID string) (*Photo, error) {
	start := time.Now()

	var p Photo
	err := r.pool.QueryRow(ctx, `
		SELECT id, report_id, storage, key, COALESCE(url, ''), COALESCE(mime, ''), COALESCE(size, 0), uploaded_at
		FROM report_photos
		WHERE id = $1 AND report_id = $2`,
		photoID, reportID,
	).Scan(&p.ID, &p.ReportID, &p.Storage, &p.Key, &p.URL, &p.Mime, &p.Size, &p.UploadedAt)

	if err := db.HandleQueryError(err, ErrPhotoNotFound, "find report photo", start); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *PostgresRepository) ListPhotos(ctx context.Context, reportID string) ([]Photo, error) {
	start := time.Now()

	rows, err := r.pool.Query(ctx, `
		SELECT id, report_id, storage, key, COALESCE(url, ''), COALESCE(mime, ''), COALESCE(size, 0), uploaded_at
		FROM report_photos
		WHERE report_id = $1
		ORDER BY uploaded_at`,
		reportID,
	)
	if err := db.HandleQueryError(err, ErrPhotoNotFound, "list report photos", start); err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.ReportID, &p.Storage, &p.Key, &p.URL, &p.Mime, &p.Size, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan photo row: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photo rows: %w", err)
	}

	return photos, nil
}

func (r *PostgresRepository) DeletePhoto(ctx context.Context, reportID, photoID string) error {
	start := time.Now()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM report_photos WHERE id = $1 AND report_id = $2`,
		photoID, reportID,
	)

	if err := db.HandleExecError(err, "delete report photo", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}

	return nil
}

func (r *PostgresRepository) AddAudit(ctx context.Context, entry AuditEntry) error {
	start := time.Now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO report_audit (report_id, actor, action, at)
		VALUES ($1, $2, $3, $4)`,
		entry.ReportID, entry.Actor, entry.Action, entry.At,
	)

	return db.HandleExecError(err, "add report audit entry", start)
}

func (r *PostgresRepository) ListAudit(ctx context.Context, reportID string) ([]AuditEntry, error) {
	start := time.Now()

	rows, err := r.pool.Query(ctx, `
		SELECT report_id, actor, action, at
		FROM report_audit
		WHERE report_id = $1
		ORDER BY at`,
		reportID,
	)
	if err := db.HandleQueryError(err, ErrReportNotFound, "list report audit", start); err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ReportID, &e.Actor, &e.Action, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit rows: %w", err)
	}

	return entries, nil
}
