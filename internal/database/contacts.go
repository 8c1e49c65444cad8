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
	"strings"
	"time"

	"github.com/tomtom215/folio/internal/models"
)

const contactColumns = `id, first_name, last_name, email, phone_number, message, created_at`

func scanContact(row rowScanner) (models.Contact, error) {
	var c models.Contact
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.Message, &c.CreatedAt)
	return c, err
}

// CreateContact stores a contact form submission.
func (db *DB) CreateContact(ctx context.Context, c models.Contact) (contact *models.Contact, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("INSERT", "contacts", time.Now(), &err)

	c.CreatedAt = now()
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO contacts (first_name, last_name, email, phone_number, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.FirstName, c.LastName, c.Email, c.PhoneNumber, c.Message, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to store contact: %w", err)
	}
	return &c, nil
}

// ListContacts returns submissions newest first. A non-empty search matches
// first name, last name or e-mail case-insensitively.
func (db *DB) ListContacts(ctx context.Context, search string) (contacts []models.Contact, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "contacts", time.Now(), &err)

	query := `SELECT ` + contactColumns + ` FROM contacts`
	var args []any
	if s := strings.ToLower(strings.TrimSpace(search)); s != "" {
		query += ` WHERE contains(lower(first_name), ?) OR contains(lower(last_name), ?) OR contains(lower(email), ?)`
		args = append(args, s, s, s)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	contacts = []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// GetContact returns one submission or ErrNotFound.
func (db *DB) GetContact(ctx context.Context, id int64) (contact *models.Contact, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "contacts", time.Now(), &err)

	c, err := scanContact(db.conn.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact %d: %w", id, err)
	}
	return &c, nil
}

// DeleteContact removes a submission.
func (db *DB) DeleteContact(ctx context.Context, id int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("DELETE", "contacts", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact %d: %w", id, err)
	}
	return requireAffected(res)
}
