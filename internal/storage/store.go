package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/config"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/observability/metrics"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	BackendS3    = "s3"
	BackendDB    = "db"
	BackendLocal = "local"
)

type StoredFile struct {
	Key  string
	URL  string
	Mime string
	Size int64
}

// FileStore abstracts where photo bytes live. URL returns a short-lived
// download link when the backend supports one; backends without link support
// return an empty string and callers stream through Open instead.
type FileStore interface {
	Backend() string
	Put(ctx context.Context, key, mime string, data []byte) (*StoredFile, error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by configuration.
func New(ctx context.Context, cfg config.StorageConfig, pool *pgxpool.Pool, log *logger.Logger) (FileStore, error) {
	switch cfg.Backend {
	case BackendS3:
		return NewS3Store(ctx, cfg)
	case BackendDB:
		return NewDBStore(pool), nil
	case BackendLocal:
		return NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown file storage backend: %q", cfg.Backend)
	}
}

func recordStored(backend string) {
	metrics.PhotosStored.WithLabelValues(backend).Inc()
}
