package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v4"

	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	"github.com/AlibekovAA/civic-reports-backend/internal/observability/metrics"
)

func extractTableFromOperation(operation string) string {
	operation = strings.ToLower(operation)
	switch {
	case strings.Contains(operation, "user"):
		return "users"
	case strings.Contains(operation, "refresh") || strings.Contains(operation, "token"):
		return "refresh_tokens"
	case strings.Contains(operation, "photo"):
		return "report_photos"
	case strings.Contains(operation, "report"):
		return "reports"
	case strings.Contains(operation, "comment"):
		return "comments"
	case strings.Contains(operation, "categor"):
		return "categories"
	case strings.Contains(operation, "contact"):
		return "contacts"
	case strings.Contains(operation, "file") || strings.Contains(operation, "blob"):
		return "file_blobs"
	default:
		return "unknown"
	}
}

// HandleQueryError classifies a query error: pgx.ErrNoRows becomes the caller's
// notFoundErr, context deadline becomes the distinguished datastore-timeout error
// so that handlers can answer 504 instead of 401.
func HandleQueryError(err error, notFoundErr error, operation string, startTime time.Time) error {
	table := extractTableFromOperation(operation)
	duration := time.Since(startTime).Seconds()
	metrics.DBQueryDurationSeconds.WithLabelValues(operation, table).Observe(duration)

	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFoundErr
	}
	errorType := fmt.Sprintf("%T", err)
	metrics.DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	if errors.Is(err, context.DeadlineExceeded) {
		return commonerrors.ErrDatastoreTimeout.WithCause(err)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func HandleExecError(err error, operation string, startTime time.Time) error {
	table := extractTableFromOperation(operation)
	duration := time.Since(startTime).Seconds()
	metrics.DBQueryDurationSeconds.WithLabelValues(operation, table).Observe(duration)

	if err == nil {
		return nil
	}
	errorType := fmt.Sprintf("%T", err)
	metrics.DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	if errors.Is(err, context.DeadlineExceeded) {
		return commonerrors.ErrDatastoreTimeout.WithCause(err)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func MeasureQueryDuration(operation string, startTime time.Time) {
	table := extractTableFromOperation(operation)
	duration := time.Since(startTime).Seconds()
	metrics.DBQueryDurationSeconds.WithLabelValues(operation, table).Observe(duration)
}
