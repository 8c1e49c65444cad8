// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package config loads Folio's configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence (last wins).
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	Turnstile TurnstileConfig `koanf:"turnstile"`
	Site      SiteConfig      `koanf:"site"`
	Likes     LikesConfig     `koanf:"likes"`
	Cache     CacheConfig     `koanf:"cache"`
	Logging   LoggingConfig   `koanf:"logging"`
	Audit     AuditConfig     `koanf:"audit"`
	Backup    BackupConfig    `koanf:"backup"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// IsProduction reports whether the server runs with production hardening
// (secure cookies, strict validation).
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig controls the embedded DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SecurityConfig holds admin credentials, session and rate limit settings.
type SecurityConfig struct {
	AdminEmail        string        `koanf:"admin_email"`
	AdminPassword     string        `koanf:"admin_password"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	CookieName        string        `koanf:"cookie_name"`
	SessionStore      string        `koanf:"session_store"` // memory | badger
	SessionStorePath  string        `koanf:"session_store_path"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	LockoutMaxAttempts int           `koanf:"lockout_max_attempts"`
	LockoutDuration    time.Duration `koanf:"lockout_duration"`
}

// TurnstileConfig configures server-side bot verification. An empty
// SecretKey disables verification.
type TurnstileConfig struct {
	SecretKey string        `koanf:"secret_key"`
	VerifyURL string        `koanf:"verify_url"`
	Timeout   time.Duration `koanf:"timeout"`
}

// Enabled reports whether tokens are checked against the verify endpoint.
func (t TurnstileConfig) Enabled() bool {
	return t.SecretKey != ""
}

// SiteConfig describes the public site for sitemap and robots rendering.
type SiteConfig struct {
	BaseURL string `koanf:"base_url"`
	Name    string `koanf:"name"`
}

// LikesConfig tunes the like accumulator.
type LikesConfig struct {
	FlushInterval time.Duration `koanf:"flush_interval"`
	MaxPending    int           `koanf:"max_pending"`
	MaxIncrement  int           `koanf:"max_increment"`
}

// CacheConfig tunes the public read cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// AuditConfig controls the admin audit trail.
type AuditConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Retention  time.Duration `koanf:"retention"`
	BufferSize int           `koanf:"buffer_size"`
}

// BackupConfig controls database backups. A zero Interval disables the
// schedule; on-demand backups from the admin API still work.
type BackupConfig struct {
	Dir      string        `koanf:"dir"`
	Interval time.Duration `koanf:"interval"`
	Retain   int           `koanf:"retain"`
}

// Load reads configuration with the layered koanf loader.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
