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

const (
	// SuggestionCount is how many related posts accompany a post detail.
	SuggestionCount = 3

	// LatestCount is how many posts the home page shows.
	LatestCount = 3
)

// ListPublicBlogs returns one keyset page of published posts, newest first.
// The returned cursor is nil when no further posts exist.
func (db *DB) ListPublicBlogs(ctx context.Context, q models.PublicBlogQuery) (blogs []models.Blog, next *models.BlogCursor, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "blogs", time.Now(), &err)

	if q.PageSize < 1 {
		q.PageSize = 10
	}

	conds := []string{`b.published = true`}
	var args []any

	if q.Cursor != nil {
		conds = append(conds, `(b.created_at < ? OR (b.created_at = ? AND b.id < ?))`)
		args = append(args, q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		conds = append(conds, `contains(lower(b.title), ?)`)
		args = append(args, search)
	}
	if len(q.Tags) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM tags t WHERE t.blog_id = b.id AND t.tag IN (`+placeholders(len(q.Tags))+`))`)
		for _, tag := range q.Tags {
			args = append(args, tag)
		}
	}
	args = append(args, q.PageSize+1)

	query := `SELECT ` + blogSummaryColumns + ` FROM blogs b WHERE ` +
		strings.Join(conds, " AND ") + ` ` + blogOrder + ` LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query public blogs: %w", err)
	}
	defer rows.Close()

	blogs = make([]models.Blog, 0, q.PageSize+1)
	for rows.Next() {
		b, err := scanBlogSummary(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, b)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating public blogs: %w", err)
	}

	if len(blogs) > q.PageSize {
		blogs = blogs[:q.PageSize]
		last := blogs[len(blogs)-1]
		next = &models.BlogCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	if err = db.attachTags(ctx, blogs); err != nil {
		return nil, nil, err
	}
	return blogs, next, nil
}

// GetPublishedBlogBySlug returns a published post with content and tags.
// Drafts and unknown slugs both return ErrNotFound.
func (db *DB) GetPublishedBlogBySlug(ctx context.Context, slug string) (blog *models.Blog, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "blogs", time.Now(), &err)

	b, err := scanBlogDetail(db.conn.QueryRowContext(ctx,
		`SELECT `+blogDetailColumns+` FROM blogs b WHERE b.slug = ? AND b.published = true`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog %q: %w", slug, err)
	}

	one := []models.Blog{b}
	if err = db.attachTags(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Suggestions returns up to limit other published posts, newest first.
func (db *DB) Suggestions(ctx context.Context, excludeID int64, limit int) ([]models.Blog, error) {
	return db.publishedSummaries(ctx, `AND b.id <> ?`, []any{excludeID}, limit)
}

// LatestBlogs returns the newest published posts.
func (db *DB) LatestBlogs(ctx context.Context, limit int) ([]models.Blog, error) {
	return db.publishedSummaries(ctx, "", nil, limit)
}

func (db *DB) publishedSummaries(ctx context.Context, extra string, args []any, limit int) (blogs []models.Blog, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "blogs", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+blogSummaryColumns+` FROM blogs b WHERE b.published = true `+extra+` `+blogOrder+` LIMIT ?`,
		append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query published blogs: %w", err)
	}
	defer rows.Close()

	blogs = []models.Blog{}
	for rows.Next() {
		b, err := scanBlogSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating published blogs: %w", err)
	}
	if err = db.attachTags(ctx, blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// PublicTags returns the distinct tags of published posts in ascending order.
func (db *DB) PublicTags(ctx context.Context) (tags []string, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "tags", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT t.tag
		FROM tags t
		JOIN blogs b ON b.id = t.blog_id
		WHERE b.published = true
		ORDER BY t.tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags = []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// IsPublished reports whether a published post with this id exists.
func (db *DB) IsPublished(ctx context.Context, id int64) (published bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "blogs", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blogs WHERE id = ? AND published = true)`, id).Scan(&published)
	if err != nil {
		return false, fmt.Errorf("failed to check blog %d: %w", id, err)
	}
	return published, nil
}

// SitemapEntries lists the slug and last modification of every published post.
func (db *DB) SitemapEntries(ctx context.Context) (entries []models.SitemapEntry, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "blogs", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT b.slug, b.updated_at
		FROM blogs b
		WHERE b.published = true
		`+blogOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to query sitemap entries: %w", err)
	}
	defer rows.Close()

	entries = []models.SitemapEntry{}
	for rows.Next() {
		var e models.SitemapEntry
		if err := rows.Scan(&e.Slug, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sitemap entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
