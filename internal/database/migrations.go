// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/folio/internal/logging"
)

// Migration is one versioned, append-only schema change.
type Migration struct {
	Version     int
	Name        string
	Description string
	Statements  []string
	AppliedAt   time.Time // populated when read back
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL
)`

// migrations is the full schema history. Never edit or remove an entry once
// released; append a new version instead.
//
// Tag rows reference blogs.id without a FOREIGN KEY: DuckDB has no ON DELETE
// CASCADE, so tags are removed in the same transaction as their post.
var migrations = []Migration{
	{
		Version:     1,
		Name:        "initial_content_schema",
		Description: "Profile, projects, blogs and tags",
		Statements: []string{
			`CREATE SEQUENCE IF NOT EXISTS seq_projects START 1`,
			`CREATE SEQUENCE IF NOT EXISTS seq_blogs START 1`,
			`CREATE SEQUENCE IF NOT EXISTS seq_tags START 1`,
			`CREATE TABLE IF NOT EXISTS profile (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				headline TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL,
				image TEXT NOT NULL DEFAULT '',
				resume_link TEXT NOT NULL DEFAULT '',
				twitter TEXT NOT NULL DEFAULT '',
				github TEXT NOT NULL DEFAULT '',
				linkedin TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS projects (
				id BIGINT PRIMARY KEY DEFAULT nextval('seq_projects'),
				title TEXT NOT NULL,
				description TEXT NOT NULL,
				image TEXT NOT NULL DEFAULT '',
				github TEXT NOT NULL DEFAULT '',
				link TEXT NOT NULL DEFAULT '',
				tech TEXT NOT NULL DEFAULT '[]',
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS blogs (
				id BIGINT PRIMARY KEY DEFAULT nextval('seq_blogs'),
				title TEXT NOT NULL,
				slug TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL,
				content TEXT NOT NULL,
				thumb_image TEXT NOT NULL DEFAULT '',
				published BOOLEAN NOT NULL DEFAULT false,
				sort_order INTEGER NOT NULL DEFAULT 0,
				likes BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tags (
				id BIGINT PRIMARY KEY DEFAULT nextval('seq_tags'),
				tag TEXT NOT NULL,
				blog_id BIGINT NOT NULL
			)`,
		},
	},
	{
		Version:     2,
		Name:        "audience_schema",
		Description: "Newsletter subscribers and stored contact submissions",
		Statements: []string{
			`CREATE SEQUENCE IF NOT EXISTS seq_subscribers START 1`,
			`CREATE SEQUENCE IF NOT EXISTS seq_contacts START 1`,
			`CREATE TABLE IF NOT EXISTS subscribers (
				id BIGINT PRIMARY KEY DEFAULT nextval('seq_subscribers'),
				email TEXT NOT NULL UNIQUE,
				active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS contacts (
				id BIGINT PRIMARY KEY DEFAULT nextval('seq_contacts'),
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				email TEXT NOT NULL,
				phone_number TEXT NOT NULL DEFAULT '',
				message TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		Version:     3,
		Name:        "listing_indexes",
		Description: "Indexes for tag lookups and newest-first listings",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_tags_blog_id ON tags(blog_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag)`,
			`CREATE INDEX IF NOT EXISTS idx_blogs_created_at ON blogs(created_at)`,
		},
	},
	{
		Version:     4,
		Name:        "audit_events",
		Description: "Admin audit trail",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS audit_events (
				id TEXT PRIMARY KEY,
				timestamp TIMESTAMP NOT NULL,
				type TEXT NOT NULL,
				severity TEXT NOT NULL,
				outcome TEXT NOT NULL,
				actor TEXT NOT NULL DEFAULT '',
				source_ip TEXT NOT NULL DEFAULT '',
				user_agent TEXT NOT NULL DEFAULT '',
				action TEXT NOT NULL,
				target_type TEXT NOT NULL DEFAULT '',
				target_id TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				metadata TEXT NOT NULL DEFAULT '{}',
				request_id TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_events(type)`,
		},
	},
}

func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations applies every migration not yet recorded in
// schema_migrations, each in its own transaction.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range migrations {
		if _, exists := applied[m.Version]; exists {
			continue
		}
		err := db.withTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`,
				m.Version, m.Name, m.Description, now())
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration v%d (%s): %w", m.Version, m.Name, err)
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("applied", newMigrations).Int("version", migrations[len(migrations)-1].Version).Msg("Applied database migrations")
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version.
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	if err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
