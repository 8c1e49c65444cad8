// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// ErrUnauthenticated is returned when a request carries no usable token.
var ErrUnauthenticated = errors.New("authentication required")

// Service performs admin login, logout and token authentication.
type Service struct {
	jwt     *JWTManager
	store   SessionStore
	admin   *AdminAuthenticator
	lockout *LockoutManager
}

// NewService wires the auth components from configuration. The admin
// password is hashed here.
func NewService(cfg *config.SecurityConfig, store SessionStore) (*Service, error) {
	jwtManager, err := NewJWTManager(cfg)
	if err != nil {
		return nil, err
	}
	admin, err := NewAdminAuthenticator(cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return nil, err
	}

	lockoutCfg := DefaultLockoutConfig()
	if cfg.LockoutMaxAttempts > 0 {
		lockoutCfg.MaxAttempts = cfg.LockoutMaxAttempts
	}
	if cfg.LockoutDuration > 0 {
		lockoutCfg.LockoutDuration = cfg.LockoutDuration
	}

	return &Service{
		jwt:     jwtManager,
		store:   store,
		admin:   admin,
		lockout: NewLockoutManager(lockoutCfg),
	}, nil
}

// LoginResult is a freshly issued token and its session.
type LoginResult struct {
	Token   string
	Session *Session
}

// Login checks lockout, verifies credentials and opens a session. Failures
// return ErrInvalidCredentials or *LockedError.
func (s *Service) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	key := normalizeSubject(email)

	if err := s.lockout.Check(key, ip); err != nil {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return nil, err
	}

	if err := s.admin.Verify(email, password); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		logging.Ctx(ctx).Warn().
			Str("email", logging.MaskEmail(email)).
			Str("ip", ip).
			Msg("Admin login failed")
		if lockErr := s.lockout.RecordFailure(key, ip); lockErr != nil {
			return nil, lockErr
		}
		return nil, ErrInvalidCredentials
	}

	session, err := NewSession(s.admin.Email(), s.jwt.Timeout())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	token, err := s.jwt.GenerateToken(session)
	if err != nil {
		_ = s.store.Delete(ctx, session.ID)
		return nil, err
	}

	s.lockout.RecordSuccess(key, ip)
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	metrics.ActiveSessions.Inc()
	logging.Ctx(ctx).Info().Str("session", logging.MaskToken(session.ID)).Msg("Admin signed in")

	return &LoginResult{Token: token, Session: session}, nil
}

// Authenticate validates the token and its session and records the access.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	session, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if err := s.store.Touch(ctx, session.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to touch session")
	}
	return session, nil
}

// Logout ends the session behind token and returns it. Invalid or unknown
// tokens are ignored so logout is idempotent; the session is nil then.
func (s *Service) Logout(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, nil
	}
	session, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		return nil, nil
	}
	if err := s.store.Delete(ctx, claims.ID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	metrics.ActiveSessions.Dec()
	return session, nil
}

// CleanupSessions removes expired sessions from the store.
func (s *Service) CleanupSessions(ctx context.Context) (int, error) {
	n, err := s.store.CleanupExpired(ctx)
	if n > 0 {
		metrics.ActiveSessions.Sub(float64(n))
	}
	return n, err
}

// CleanupLockouts drops stale lockout entries.
func (s *Service) CleanupLockouts(ctx context.Context) (int, error) {
	return s.lockout.CleanupExpired(ctx)
}

// CookieMaxAge is the lifetime of new sessions in seconds.
func (s *Service) CookieMaxAge() int {
	return int(s.jwt.Timeout().Seconds())
}

func normalizeSubject(email string) string {
	return "email:" + lowerTrim(email)
}
