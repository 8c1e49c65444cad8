// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package services

import (
	"context"
	"time"

	"github.com/tomtom215/folio/internal/logging"
)

// Default intervals for the housekeeping services.
const (
	DefaultSessionCleanupInterval = 15 * time.Minute
	DefaultLockoutCleanupInterval = 5 * time.Minute
	DefaultCheckpointInterval     = 10 * time.Minute
)

// PeriodicService calls a task on a fixed interval until stopped. Task
// errors are logged and the loop continues; they are not worth a restart.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) (int, error)
}

// NewPeriodicService runs task every interval. The int result is logged as
// the number of items the run affected.
func NewPeriodicService(name string, interval time.Duration, task func(ctx context.Context) (int, error)) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *PeriodicService) run(ctx context.Context) {
	n, err := s.task(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("service", s.name).Msg("Periodic task failed")
		return
	}
	if n > 0 {
		logging.Debug().Str("service", s.name).Int("affected", n).Msg("Periodic task completed")
	}
}

// String implements fmt.Stringer for logging.
func (s *PeriodicService) String() string {
	return s.name
}

// SessionCleaner removes expired sessions. Satisfied by *auth.Service.
type SessionCleaner interface {
	CleanupSessions(ctx context.Context) (int, error)
}

// LockoutCleaner forgets stale lockout entries. Satisfied by *auth.Service.
type LockoutCleaner interface {
	CleanupLockouts(ctx context.Context) (int, error)
}

// Checkpointer flushes the database WAL. Satisfied by *database.DB.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// NewSessionCleanupService sweeps expired admin sessions.
func NewSessionCleanupService(c SessionCleaner, interval time.Duration) *PeriodicService {
	if interval <= 0 {
		interval = DefaultSessionCleanupInterval
	}
	return NewPeriodicService("session-cleanup", interval, c.CleanupSessions)
}

// NewLockoutCleanupService sweeps expired login lockouts.
func NewLockoutCleanupService(c LockoutCleaner, interval time.Duration) *PeriodicService {
	if interval <= 0 {
		interval = DefaultLockoutCleanupInterval
	}
	return NewPeriodicService("lockout-cleanup", interval, c.CleanupLockouts)
}

// NewCheckpointService checkpoints the database so the WAL stays small
// between restarts.
func NewCheckpointService(c Checkpointer, interval time.Duration) *PeriodicService {
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	return NewPeriodicService("db-checkpoint", interval, func(ctx context.Context) (int, error) {
		return 0, c.Checkpoint(ctx)
	})
}
