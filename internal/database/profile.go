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

	"github.com/tomtom215/folio/internal/models"
)

// profileRowID is the fixed key of the single profile row.
const profileRowID = 1

// GetProfile returns the site profile, or (nil, nil) before one is saved.
func (db *DB) GetProfile(ctx context.Context) (profile *models.Profile, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "profile", time.Now(), &err)

	var p models.Profile
	err = db.conn.QueryRowContext(ctx, `
		SELECT id, name, headline, description, image, resume_link,
			twitter, github, linkedin, email, updated_at
		FROM profile
		WHERE id = ?`, profileRowID).Scan(
		&p.ID, &p.Name, &p.Headline, &p.Description, &p.Image, &p.ResumeLink,
		&p.Twitter, &p.Github, &p.Linkedin, &p.Email, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile creates or replaces the site profile.
func (db *DB) UpsertProfile(ctx context.Context, in *models.ProfileInput) (profile *models.Profile, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("UPSERT", "profile", time.Now(), &err)

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO profile (id, name, headline, description, image, resume_link,
			twitter, github, linkedin, email, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			headline = excluded.headline,
			description = excluded.description,
			image = excluded.image,
			resume_link = excluded.resume_link,
			twitter = excluded.twitter,
			github = excluded.github,
			linkedin = excluded.linkedin,
			email = excluded.email,
			updated_at = excluded.updated_at`,
		profileRowID, in.Name, in.Headline, in.Description, in.Image, in.ResumeLink,
		in.Twitter, in.Github, in.Linkedin, in.Email, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	profile, err = db.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	return profile, nil
}
