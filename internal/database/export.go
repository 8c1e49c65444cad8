// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/folio/internal/logging"
)

// countedTables are reported in backup metadata.
var countedTables = []string{
	"profile",
	"projects",
	"blogs",
	"tags",
	"subscribers",
	"contacts",
	"audit_events",
}

// Export checkpoints and writes the schema and every table to dir with
// DuckDB's EXPORT DATABASE. The result can be loaded with IMPORT DATABASE.
func (db *DB) Export(ctx context.Context, dir string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("EXPORT", "database", time.Now(), &err)

	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Checkpoint failed, export may miss recent writes")
	}

	if _, err = db.conn.ExecContext(ctx, "EXPORT DATABASE "+quoteLiteral(dir)); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// TableCounts returns the row count of every content table.
func (db *DB) TableCounts(ctx context.Context) (counts map[string]int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "counts", time.Now(), &err)

	counts = make(map[string]int64, len(countedTables))
	for _, table := range countedTables {
		var n int64
		// Table names come from countedTables, never from input.
		if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
