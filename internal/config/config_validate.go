// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// MinJWTSecretLength is the minimum accepted HS256 secret length.
const MinJWTSecretLength = 32

// MinAdminPasswordLength is the minimum accepted admin password length.
const MinAdminPasswordLength = 8

// MaxAdminPasswordLength is bcrypt's input limit.
const MaxAdminPasswordLength = 72

// Validate checks the configuration and returns every failure joined.
func (c *Config) Validate() error {
	return errors.Join(
		c.validateServer(),
		c.validateDatabase(),
		c.validateSecurity(),
		c.validateTurnstile(),
		c.validateSite(),
		c.validateLikes(),
		c.validateLogging(),
		c.validateAudit(),
		c.validateBackup(),
	)
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	var errs []error
	if strings.TrimSpace(c.Security.AdminEmail) == "" {
		errs = append(errs, errors.New("ADMIN_EMAIL is required"))
	}
	if len(c.Security.AdminPassword) < MinAdminPasswordLength {
		errs = append(errs, fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", MinAdminPasswordLength))
	}
	if len(c.Security.AdminPassword) > MaxAdminPasswordLength {
		errs = append(errs, fmt.Errorf("ADMIN_PASSWORD must be at most %d bytes", MaxAdminPasswordLength))
	}
	if len(c.Security.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength))
	}
	if c.Security.SessionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TIMEOUT must be positive, got %s", c.Security.SessionTimeout))
	}
	if strings.TrimSpace(c.Security.CookieName) == "" {
		errs = append(errs, errors.New("AUTH_COOKIE_NAME must not be empty"))
	}
	switch c.Security.SessionStore {
	case "memory":
	case "badger":
		if strings.TrimSpace(c.Security.SessionStorePath) == "" {
			errs = append(errs, errors.New("SESSION_STORE_PATH is required when SESSION_STORE=badger"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be memory or badger, got %q", c.Security.SessionStore))
	}
	if c.Security.LockoutMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("LOCKOUT_MAX_ATTEMPTS must be positive, got %d", c.Security.LockoutMaxAttempts))
	}
	if c.Security.LockoutDuration <= 0 {
		errs = append(errs, fmt.Errorf("LOCKOUT_DURATION must be positive, got %s", c.Security.LockoutDuration))
	}
	return errors.Join(errs...)
}

func (c *Config) validateTurnstile() error {
	if !c.Turnstile.Enabled() {
		return nil
	}
	if err := validateHTTPURL(c.Turnstile.VerifyURL, "TURNSTILE_VERIFY_URL", true); err != nil {
		return err
	}
	if c.Turnstile.Timeout <= 0 {
		return fmt.Errorf("TURNSTILE_TIMEOUT must be positive, got %s", c.Turnstile.Timeout)
	}
	return nil
}

func (c *Config) validateSite() error {
	return validateHTTPURL(c.Site.BaseURL, "SITE_BASE_URL", false)
}

func (c *Config) validateLikes() error {
	if c.Likes.FlushInterval <= 0 {
		return fmt.Errorf("LIKES_FLUSH_INTERVAL must be positive, got %s", c.Likes.FlushInterval)
	}
	if c.Likes.MaxPending <= 0 {
		return fmt.Errorf("LIKES_MAX_PENDING must be positive, got %d", c.Likes.MaxPending)
	}
	if c.Likes.MaxIncrement <= 0 {
		return fmt.Errorf("LIKES_MAX_INCREMENT must be positive, got %d", c.Likes.MaxIncrement)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.Retention <= 0 {
		return fmt.Errorf("AUDIT_RETENTION must be positive, got %s", c.Audit.Retention)
	}
	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive, got %d", c.Audit.BufferSize)
	}
	return nil
}

func (c *Config) validateBackup() error {
	if strings.TrimSpace(c.Backup.Dir) == "" {
		return errors.New("BACKUP_DIR is required")
	}
	if c.Backup.Interval < 0 {
		return fmt.Errorf("BACKUP_INTERVAL must not be negative, got %s", c.Backup.Interval)
	}
	if c.Backup.Retain <= 0 {
		return fmt.Errorf("BACKUP_RETAIN must be positive, got %d", c.Backup.Retain)
	}
	return nil
}

// validateHTTPURL requires an absolute http(s) URL. Paths are rejected unless
// allowPath is set; query strings are always rejected.
func validateHTTPURL(rawURL, fieldName string, allowPath bool) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if !allowPath && parsed.Path != "" && parsed.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsed.Path)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}
