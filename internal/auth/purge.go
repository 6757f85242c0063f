// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package auth

import (
	"context"
	"log/slog"
	"time"
)

// PurgeWorker periodically trims the revocation ledger.
//
// # Why purge at all?
//
// Revoked tokens carry their own expiry, so verification rejects them without
// the ledger once they age out. Entries older than every token lifetime are
// therefore pure storage cost, and the worker reclaims them on a timer.
type PurgeWorker struct {
	banRepository BanRepository
	retention     time.Duration
	interval      time.Duration
	logger        *slog.Logger
}

// NewPurgeWorker constructs a worker that removes ledger entries older than
// retention, waking every interval.
//
// The retention must comfortably exceed the longest token lifetime; purging a
// revoked token that could still verify would silently un-revoke it.
func NewPurgeWorker(banRepo BanRepository, retention, interval time.Duration, logger *slog.Logger) *PurgeWorker {
	return &PurgeWorker{
		banRepository: banRepo,
		retention:     retention,
		interval:      interval,
		logger:        logger,
	}
}

// Run blocks until the context is canceled, purging once per interval.
// Intended to be launched as a goroutine at startup.
func (worker *PurgeWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(worker.interval)
	defer ticker.Stop()

	// One pass at startup so a long interval does not delay the first sweep.
	worker.purgeOnce(ctx)

	for {
		select {
		case <-ticker.C:
			worker.purgeOnce(ctx)
		case <-ctx.Done():
			worker.logger.Info("ban_purge_worker_stopped")
			return
		}
	}
}

func (worker *PurgeWorker) purgeOnce(ctx context.Context) {
	removed, err := worker.banRepository.PurgeOlderThan(ctx, worker.retention)
	if err != nil {
		// Failure is not fatal; the next tick retries.
		worker.logger.Error("ban_purge_failed", slog.Any("error", err))
		return
	}

	if removed > 0 {
		worker.logger.Info("ban_purge_completed", slog.Int64("removed", removed))
	}
}
