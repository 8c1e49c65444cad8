// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/models"
)

const (
	blogSummaryColumns = `b.id, b.title, b.slug, b.description, b.thumb_image, b.published, b.sort_order, b.likes, b.created_at, b.updated_at`
	blogDetailColumns  = `b.id, b.title, b.slug, b.description, b.content, b.thumb_image, b.published, b.sort_order, b.likes, b.created_at, b.updated_at`

	// blogOrder is the single ordering used by every post listing.
	blogOrder = `ORDER BY b.created_at DESC, b.id DESC`
)

func scanBlogSummary(row rowScanner) (models.Blog, error) {
	var b models.Blog
	err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Description, &b.ThumbImage,
		&b.Published, &b.Order, &b.Likes, &b.CreatedAt, &b.UpdatedAt)
	b.Tags = []string{}
	return b, err
}

func scanBlogDetail(row rowScanner) (models.Blog, error) {
	var b models.Blog
	var content string
	err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Description, &content, &b.ThumbImage,
		&b.Published, &b.Order, &b.Likes, &b.CreatedAt, &b.UpdatedAt)
	b.Content = json.RawMessage(content)
	b.Tags = []string{}
	return b, err
}

// compactContent validates and compacts the editor document for storage.
func compactContent(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("invalid content document: %w", err)
	}
	return buf.String(), nil
}

// ListBlogs returns one page of posts for the admin console, drafts included.
func (db *DB) ListBlogs(ctx context.Context, q models.BlogListQuery) (page *models.BlogPage, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "blogs", time.Now(), &err)

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}

	where := ""
	var args []any
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		where = `WHERE contains(lower(b.title), ?)`
		args = append(args, search)
	}

	var total int
	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM blogs b `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count blogs: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+blogSummaryColumns+` FROM blogs b `+where+` `+blogOrder+` LIMIT ? OFFSET ?`,
		append(args, q.PageSize, (q.Page-1)*q.PageSize)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blogs: %w", err)
	}
	defer rows.Close()

	blogs := []models.Blog{}
	for rows.Next() {
		b, err := scanBlogSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blogs: %w", err)
	}
	if err = db.attachTags(ctx, blogs); err != nil {
		return nil, err
	}

	return &models.BlogPage{
		Data:       blogs,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (total + q.PageSize - 1) / q.PageSize,
	}, nil
}

// GetBlog returns any post by id, with content and tags.
func (db *DB) GetBlog(ctx context.Context, id int64) (blog *models.Blog, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("SELECT", "blogs", time.Now(), &err)

	b, err := scanBlogDetail(db.conn.QueryRowContext(ctx, `SELECT `+blogDetailColumns+` FROM blogs b WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog %d: %w", id, err)
	}

	one := []models.Blog{b}
	if err = db.attachTags(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// CreateBlog inserts a post and its tags in one transaction. A taken slug
// returns ErrConflict.
func (db *DB) CreateBlog(ctx context.Context, in *models.BlogInput) (blog *models.Blog, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("INSERT", "blogs", time.Now(), &err)

	content, err := compactContent(in.Content)
	if err != nil {
		return nil, err
	}

	var id int64
	ts := now()
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO blogs (title, slug, description, content, thumb_image, published, sort_order, likes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
			RETURNING id`,
			in.Title, in.Slug, in.Description, content, in.ThumbImage, in.Published, in.Order, ts, ts,
		).Scan(&id); err != nil {
			return err
		}
		return insertTags(ctx, tx, id, in.Tags)
	})
	if isUniqueConstraintError(err) {
		return nil, fmt.Errorf("slug %q: %w", in.Slug, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}
	return db.GetBlog(ctx, id)
}

// UpdateBlog replaces a post's fields and its tag set atomically.
func (db *DB) UpdateBlog(ctx context.Context, id int64, in *models.BlogInput) (blog *models.Blog, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("UPDATE", "blogs", time.Now(), &err)

	content, err := compactContent(in.Content)
	if err != nil {
		return nil, err
	}

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE blogs
			SET title = ?, slug = ?, description = ?, content = ?, thumb_image = ?,
				published = ?, sort_order = ?, updated_at = ?
			WHERE id = ?`,
			in.Title, in.Slug, in.Description, content, in.ThumbImage,
			in.Published, in.Order, now(), id,
		)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE blog_id = ?`, id); err != nil {
			return err
		}
		return insertTags(ctx, tx, id, in.Tags)
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, ErrNotFound
	case isUniqueConstraintError(err):
		return nil, fmt.Errorf("slug %q: %w", in.Slug, ErrConflict)
	case err != nil:
		return nil, fmt.Errorf("failed to update blog %d: %w", id, err)
	}
	return db.GetBlog(ctx, id)
}

// DeleteBlog removes a post and its tags in one transaction.
func (db *DB) DeleteBlog(ctx context.Context, id int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("DELETE", "blogs", time.Now(), &err)

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE blog_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete blog %d: %w", id, err)
	}
	return err
}

// SetPublished flips a post's visibility without touching its content.
func (db *DB) SetPublished(ctx context.Context, id int64, published bool) (blog *models.Blog, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("UPDATE", "blogs", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `UPDATE blogs SET published = ?, updated_at = ? WHERE id = ?`, published, now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to set published on blog %d: %w", id, err)
	}
	if err = requireAffected(res); err != nil {
		return nil, err
	}
	return db.GetBlog(ctx, id)
}

func insertTags(ctx context.Context, tx *sql.Tx, blogID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tags (tag, blog_id) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, tag := range tags {
		if _, err := stmt.ExecContext(ctx, tag, blogID); err != nil {
			return fmt.Errorf("failed to insert tag %q: %w", tag, err)
		}
	}
	return nil
}

// attachTags loads the tags of every post in blogs with a single query.
// Tags keep insertion order.
func (db *DB) attachTags(ctx context.Context, blogs []models.Blog) error {
	if len(blogs) == 0 {
		return nil
	}

	ids := make([]any, len(blogs))
	index := make(map[int64]int, len(blogs))
	for i := range blogs {
		ids[i] = blogs[i].ID
		index[blogs[i].ID] = i
		if blogs[i].Tags == nil {
			blogs[i].Tags = []string{}
		}
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT blog_id, tag FROM tags WHERE blog_id IN (`+placeholders(len(ids))+`) ORDER BY blog_id, id`, ids...)
	if err != nil {
		return fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var blogID int64
		var tag string
		if err := rows.Scan(&blogID, &tag); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		if i, ok := index[blogID]; ok {
			blogs[i].Tags = append(blogs[i].Tags, tag)
		}
	}
	return rows.Err()
}
