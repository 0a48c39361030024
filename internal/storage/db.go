package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/db"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
)

var errBlobNotFound = commonerrors.NewDomainError(
	"FILE_NOT_FOUND",
	commonerrors.CategoryNotFound,
	http.StatusNotFound,
	"file not found",
)

// DBStore keeps photo bytes in the file_blobs table. Suits small deployments
// where a separate object store is not worth operating.
type DBStore struct {
	pool *pgxpool.Pool
}

func NewDBStore(pool *pgxpool.Pool) *DBStore {
	return &DBStore{pool: pool}
}

func (s *DBStore) Backend() string { return BackendDB }

func (s *DBStore) Put(ctx context.Context, key, mime string, data []byte) (*StoredFile, error) {
	start := time.Now()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO file_blobs (key, mime, size, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET mime = EXCLUDED.mime, size = EXCLUDED.size, data = EXCLUDED.data`,
		key, mime, int64(len(data)), data,
	)
	if err := db.HandleExecError(err, "store file blob", start); err != nil {
		return nil, err
	}

	recordStored(BackendDB)

	return &StoredFile{Key: key, Mime: mime, Size: int64(len(data))}, nil
}

func (s *DBStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	start := time.Now()

	var (
		mime string
		data []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT mime, data FROM file_blobs WHERE key = $1`,
		key,
	).Scan(&mime, &data)

	if err := db.HandleQueryError(err, errBlobNotFound, "load file blob", start); err != nil {
		return nil, "", err
	}

	return io.NopCloser(bytes.NewReader(data)), mime, nil
}

// URL is empty for the database backend; downloads stream through Open.
func (s *DBStore) URL(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	start := time.Now()

	_, err := s.pool.Exec(ctx, `DELETE FROM file_blobs WHERE key = $1`, key)

	return db.HandleExecError(err, "delete file blob", start)
}
