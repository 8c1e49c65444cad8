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

	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/models"
)

const projectColumns = `id, title, description, image, github, link, tech, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (models.Project, error) {
	var p models.Project
	var tech string
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Image, &p.Github, &p.Link, &tech, &p.CreatedAt); err != nil {
		return p, err
	}
	p.Tech = []models.TechItem{}
	if tech != "" {
		if err := json.Unmarshal([]byte(tech), &p.Tech); err != nil {
			return p, fmt.Errorf("project %d has malformed tech list: %w", p.ID, err)
		}
	}
	if p.Tech == nil {
		p.Tech = []models.TechItem{}
	}
	return p, nil
}

func encodeTech(items []models.TechItem) (string, error) {
	if items == nil {
		items = []models.TechItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode tech list: %w", err)
	}
	return string(b), nil
}

// ListProjects returns all projects. newestFirst orders by id descending
// (public site); otherwise ascending (admin console).
func (db *DB) ListProjects(ctx context.Context, newestFirst bool) (projects []models.Project, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "projects", time.Now(), &err)

	order := "ASC"
	if newestFirst {
		order = "DESC"
	}
	rows, err := db.conn.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id `+order)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects = []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// GetProject returns one project or ErrNotFound.
func (db *DB) GetProject(ctx context.Context, id int64) (project *models.Project, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "projects", time.Now(), &err)

	p, err := scanProject(db.conn.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return &p, nil
}

// CreateProject inserts a project and returns it with its new id.
func (db *DB) CreateProject(ctx context.Context, in *models.ProjectInput) (project *models.Project, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("INSERT", "projects", time.Now(), &err)

	tech, err := encodeTech(in.Tech)
	if err != nil {
		return nil, err
	}

	var id int64
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO projects (title, description, image, github, link, tech, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		in.Title, in.Description, in.Image, in.Github, in.Link, tech, now(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return db.GetProject(ctx, id)
}

// UpdateProject replaces a project's fields. Missing ids return ErrNotFound.
func (db *DB) UpdateProject(ctx context.Context, id int64, in *models.ProjectInput) (project *models.Project, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("UPDATE", "projects", time.Now(), &err)

	tech, err := encodeTech(in.Tech)
	if err != nil {
		return nil, err
	}

	res, err := db.conn.ExecContext(ctx, `
		UPDATE projects
		SET title = ?, description = ?, image = ?, github = ?, link = ?, tech = ?
		WHERE id = ?`,
		in.Title, in.Description, in.Image, in.Github, in.Link, tech, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update project %d: %w", id, err)
	}
	if err = requireAffected(res); err != nil {
		return nil, err
	}
	return db.GetProject(ctx, id)
}

// DeleteProject removes a project. Missing ids return ErrNotFound.
func (db *DB) DeleteProject(ctx context.Context, id int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("DELETE", "projects", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	return requireAffected(res)
}
