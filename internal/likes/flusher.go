// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package likes

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// Store persists a batch of increments atomically.
//
// Satisfied by *database.DB.
type Store interface {
	IncrementLikes(ctx context.Context, increments map[int64]int64) error
}

// finalFlushTimeout bounds the flush performed during shutdown.
const finalFlushTimeout = 10 * time.Second

// Flusher periodically writes accumulated clicks to the Store. It runs as a
// suture service.
type Flusher struct {
	acc      *Accumulator
	store    Store
	interval time.Duration

	// mu serializes flushes so a post's increments are never written by two
	// transactions at once.
	mu sync.Mutex
}

// NewFlusher creates a flusher that writes every interval.
func NewFlusher(acc *Accumulator, store Store, interval time.Duration) *Flusher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Flusher{acc: acc, store: store, interval: interval}
}

// Serve implements suture.Service. On cancellation it performs one last
// flush with a fresh context before returning.
func (f *Flusher) Serve(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			if err := f.Flush(finalCtx); err != nil {
				logging.Error().Err(err).Int("posts", f.acc.Len()).Msg("Final like flush failed; pending likes are lost")
			}
			cancel()
			return ctx.Err()
		case <-ticker.C:
			f.flushLogged(ctx)
		case <-f.acc.FlushRequested():
			f.flushLogged(ctx)
		}
	}
}

func (f *Flusher) flushLogged(ctx context.Context) {
	if err := f.Flush(ctx); err != nil {
		logging.Warn().Err(err).Msg("Like flush failed; increments kept for retry")
	}
}

// Flush writes every pending increment in one transaction. On failure the
// batch is merged back so no click is lost. Readers in Accumulator.View wait
// for the write and the in-flight clear to finish together.
func (f *Flusher) Flush(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	batch := f.acc.swap()
	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	f.acc.commit.Lock()
	err := f.store.IncrementLikes(ctx, batch)
	if err != nil {
		f.acc.restore()
	} else {
		f.acc.committed()
	}
	f.acc.commit.Unlock()

	var total int64
	for _, n := range batch {
		total += n
	}
	metrics.RecordLikeFlush(total, time.Since(start), err)

	if err != nil {
		return err
	}

	logging.Debug().Int("posts", len(batch)).Int64("likes", total).Msg("Flushed likes")
	return nil
}

// String implements fmt.Stringer for logging.
func (f *Flusher) String() string {
	return "likes-flusher"
}
