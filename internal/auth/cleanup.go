package auth

import (
	"context"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/observability/metrics"
)

// CleanupWorker periodically deletes refresh tokens whose expiry lies beyond
// the retention window. Revoked rows inside the window are kept so the
// rotation chain stays auditable.
type CleanupWorker struct {
	tokens    TokenRepository
	retention time.Duration
	log       *logger.Logger
}

func NewCleanupWorker(tokens TokenRepository, retention time.Duration, log *logger.Logger) *CleanupWorker {
	return &CleanupWorker{tokens: tokens, retention: retention, log: log}
}

func (w *CleanupWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(constants.CleanupInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)

	deleted, err := w.tokens.DeleteStale(ctx, cutoff)
	if err != nil {
		w.log.Errorf("refresh token cleanup failed: %v", err)
		return
	}

	if deleted > 0 {
		metrics.TokensCleanupDeleted.Add(float64(deleted))
		w.log.Infof("refresh token cleanup deleted %d stale tokens", deleted)
	}
}
