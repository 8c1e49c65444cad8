// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/folio/internal/models"
)

// Subscribe stores a new subscriber. created is false when the address was
// already present; an inactive subscriber stays inactive.
func (db *DB) Subscribe(ctx context.Context, email string) (created bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("INSERT", "subscribers", time.Now(), &err)

	email = models.NormalizeEmail(email)
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO subscribers (email, active, created_at) VALUES (?, true, ?)`, email, now())
	if isUniqueConstraintError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to subscribe: %w", err)
	}
	return true, nil
}

// ListSubscribers returns every subscriber, newest first.
func (db *DB) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	return db.querySubscribers(ctx, `SELECT id, email, active, created_at FROM subscribers ORDER BY created_at DESC, id DESC`)
}

// ListActiveSubscribers returns the subscribers that receive the newsletter,
// oldest first.
func (db *DB) ListActiveSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	return db.querySubscribers(ctx, `SELECT id, email, active, created_at FROM subscribers WHERE active = true ORDER BY created_at, id`)
}

func (db *DB) querySubscribers(ctx context.Context, query string) (subs []models.Subscriber, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "subscribers", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	subs = []models.Subscriber{}
	for rows.Next() {
		var s models.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// SetSubscriberActive toggles whether a subscriber receives the newsletter.
func (db *DB) SetSubscriberActive(ctx context.Context, id int64, active bool) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("UPDATE", "subscribers", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `UPDATE subscribers SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update subscriber %d: %w", id, err)
	}
	return requireAffected(res)
}

// DeleteSubscriber removes a subscriber.
func (db *DB) DeleteSubscriber(ctx context.Context, id int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("DELETE", "subscribers", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `DELETE FROM subscribers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber %d: %w", id, err)
	}
	return requireAffected(res)
}
