// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/folio/internal/logging"
)

// LockoutConfig holds configuration for the account lockout system.
type LockoutConfig struct {
	// MaxAttempts is the number of failed attempts before lockout.
	MaxAttempts int

	// LockoutDuration is the base lockout period.
	LockoutDuration time.Duration

	// EnableExponentialBackoff doubles the lockout period on each subsequent lockout.
	EnableExponentialBackoff bool

	// MaxLockoutDuration caps the lockout period when using exponential backoff.
	MaxLockoutDuration time.Duration

	// AttemptWindow forgets failed attempts older than this.
	AttemptWindow time.Duration
}

// DefaultLockoutConfig returns sensible defaults.
func DefaultLockoutConfig() *LockoutConfig {
	return &LockoutConfig{
		MaxAttempts:              5,
		LockoutDuration:          15 * time.Minute,
		EnableExponentialBackoff: true,
		MaxLockoutDuration:       24 * time.Hour,
		AttemptWindow:            time.Hour,
	}
}

// ErrAccountLocked matches every *LockedError via errors.Is.
var ErrAccountLocked = errors.New("account locked")

// LockedError reports an active lockout.
type LockedError struct {
	Subject   string
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.Remaining.Round(time.Second))
}

// Is reports whether target is ErrAccountLocked.
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// LockoutEntry tracks failed login attempts for a subject (e-mail or IP).
type LockoutEntry struct {
	Subject        string
	FailedAttempts int
	LastAttempt    time.Time
	LockoutCount   int // Number of times locked out (for exponential backoff)
	LockedUntil    time.Time
}

// IsLocked returns true if the entry is currently locked out.
func (e *LockoutEntry) IsLocked(now time.Time) bool {
	return now.Before(e.LockedUntil)
}

// LockoutManager handles account lockout logic. State lives in memory;
// a restart clears every lockout.
type LockoutManager struct {
	config  LockoutConfig
	mu      sync.Mutex
	entries map[string]*LockoutEntry
	now     func() time.Time
}

// NewLockoutManager creates a new lockout manager.
func NewLockoutManager(config *LockoutConfig) *LockoutManager {
	if config == nil {
		config = DefaultLockoutConfig()
	}
	return &LockoutManager{
		config:  *config,
		entries: make(map[string]*LockoutEntry),
		now:     time.Now,
	}
}

func ipSubject(ip string) string {
	return "ip:" + ip
}

// Check returns a *LockedError when the e-mail or the IP is locked.
func (m *LockoutManager) Check(email, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, subject := range []string{email, ipSubject(ip)} {
		if entry, ok := m.entries[subject]; ok && entry.IsLocked(now) {
			return &LockedError{Subject: subject, Remaining: entry.LockedUntil.Sub(now)}
		}
	}
	return nil
}

// RecordFailure counts a failed attempt against both e-mail and IP and
// returns a *LockedError if either is now locked.
func (m *LockoutManager) RecordFailure(email, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var locked *LockedError
	for _, subject := range []string{email, ipSubject(ip)} {
		if subject == "" || subject == ipSubject("") {
			continue
		}
		if remaining, isLocked := m.recordAttempt(subject, now); isLocked && locked == nil {
			locked = &LockedError{Subject: subject, Remaining: remaining}
		}
	}
	if locked != nil {
		return locked
	}
	return nil
}

func (m *LockoutManager) recordAttempt(subject string, now time.Time) (time.Duration, bool) {
	entry, ok := m.entries[subject]
	if !ok {
		entry = &LockoutEntry{Subject: subject}
		m.entries[subject] = entry
	}
	if entry.IsLocked(now) {
		return entry.LockedUntil.Sub(now), true
	}
	if m.config.AttemptWindow > 0 && now.Sub(entry.LastAttempt) > m.config.AttemptWindow {
		entry.FailedAttempts = 0
	}

	entry.FailedAttempts++
	entry.LastAttempt = now
	if entry.FailedAttempts < m.config.MaxAttempts {
		return 0, false
	}

	duration := calculateLockoutDuration(&m.config, entry.LockoutCount)
	entry.LockedUntil = now.Add(duration)
	entry.LockoutCount++
	entry.FailedAttempts = 0

	logging.Warn().
		Str("subject", subject).
		Dur("duration", duration).
		Int("lockout_count", entry.LockoutCount).
		Msg("Login locked")

	return duration, true
}

// calculateLockoutDuration computes the lockout duration with optional exponential backoff.
func calculateLockoutDuration(config *LockoutConfig, lockoutCount int) time.Duration {
	duration := config.LockoutDuration
	if !config.EnableExponentialBackoff || lockoutCount == 0 {
		return duration
	}

	for i := 0; i < lockoutCount; i++ {
		duration *= 2
		if config.MaxLockoutDuration > 0 && duration >= config.MaxLockoutDuration {
			return config.MaxLockoutDuration
		}
	}
	return duration
}

// RecordSuccess clears the e-mail and IP entries.
func (m *LockoutManager) RecordSuccess(email, ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, email)
	delete(m.entries, ipSubject(ip))
}

// CleanupExpired drops entries that are neither locked nor recently active.
func (m *LockoutManager) CleanupExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	retain := m.config.AttemptWindow
	if m.config.MaxLockoutDuration > retain {
		retain = m.config.MaxLockoutDuration
	}

	count := 0
	for subject, entry := range m.entries {
		if entry.IsLocked(now) || now.Sub(entry.LastAttempt) < retain {
			continue
		}
		delete(m.entries, subject)
		count++
	}
	return count, nil
}
