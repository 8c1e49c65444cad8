// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// IncrementLikes adds every batched increment in a single transaction.
// Either all increments are applied or none are. Posts deleted since the
// clicks were accepted are skipped.
func (db *DB) IncrementLikes(ctx context.Context, increments map[int64]int64) (err error) {
	if len(increments) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("UPDATE", "blogs", time.Now(), &err)

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE blogs SET likes = likes + ? WHERE id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for id, n := range increments {
			if n <= 0 {
				continue
			}
			if _, err := stmt.ExecContext(ctx, n, id); err != nil {
				return fmt.Errorf("blog %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to flush likes: %w", err)
	}
	return nil
}

// GetLikes returns the stored like count of a post.
func (db *DB) GetLikes(ctx context.Context, id int64) (likes int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "blogs", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx, `SELECT likes FROM blogs WHERE id = ?`, id).Scan(&likes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get likes for blog %d: %w", id, err)
	}
	return likes, nil
}
