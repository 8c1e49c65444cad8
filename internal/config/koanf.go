// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/folio/config.yaml",
	"/etc/folio/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultTurnstileVerifyURL is Cloudflare's siteverify endpoint.
const DefaultTurnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3857,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/folio.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Security: SecurityConfig{
			SessionTimeout:     48 * time.Hour,
			CookieName:         "Auth",
			SessionStore:       "memory",
			SessionStorePath:   "/data/sessions",
			CORSOrigins:        []string{"*"},
			LockoutMaxAttempts: 5,
			LockoutDuration:    15 * time.Minute,
		},
		Turnstile: TurnstileConfig{
			VerifyURL: DefaultTurnstileVerifyURL,
			Timeout:   10 * time.Second,
		},
		Site: SiteConfig{
			BaseURL: "http://localhost:3857",
			Name:    "Folio",
		},
		Likes: LikesConfig{
			FlushInterval: time.Second,
			MaxPending:    500,
			MaxIncrement:  50,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Audit: AuditConfig{
			Enabled:    true,
			Retention:  90 * 24 * time.Hour,
			BufferSize: 256,
		},
		Backup: BackupConfig{
			Dir:      "/data/backups",
			Interval: 24 * time.Hour,
			Retain:   7,
		},
	}
}

// LoadWithKoanf loads configuration in three layers: struct defaults, the
// first config file found, then mapped environment variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Security
	"admin_email":          "security.admin_email",
	"admin_password":       "security.admin_password",
	"jwt_secret":           "security.jwt_secret",
	"session_timeout":      "security.session_timeout",
	"auth_cookie_name":     "security.cookie_name",
	"session_store":        "security.session_store",
	"session_store_path":   "security.session_store_path",
	"cors_origins":         "security.cors_origins",
	"disable_rate_limit":   "security.rate_limit_disabled",
	"lockout_max_attempts": "security.lockout_max_attempts",
	"lockout_duration":     "security.lockout_duration",

	// Turnstile
	"turnstile_secret_key": "turnstile.secret_key",
	"turnstile_verify_url": "turnstile.verify_url",
	"turnstile_timeout":    "turnstile.timeout",

	// Site
	"site_base_url": "site.base_url",
	"site_name":     "site.name",

	// Likes
	"likes_flush_interval": "likes.flush_interval",
	"likes_max_pending":    "likes.max_pending",
	"likes_max_increment":  "likes.max_increment",

	// Cache
	"cache_ttl": "cache.ttl",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Audit
	"audit_enabled":     "audit.enabled",
	"audit_retention":   "audit.retention",
	"audit_buffer_size": "audit.buffer_size",

	// Backup
	"backup_dir":      "backup.dir",
	"backup_interval": "backup.interval",
	"backup_retain":   "backup.retain",
}

// envTransformFunc maps known environment variables to koanf paths. Unmapped
// variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
