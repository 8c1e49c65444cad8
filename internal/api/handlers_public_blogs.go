// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/database"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/validation"
)

// Public post list paging.
const (
	defaultPublicPageSize = 10
	maxPublicPageSize     = 50
)

// ListPublicBlogs serves one keyset page of published posts.
//
// Query parameters: cursor (opaque, from next_cursor), page_size (1..50),
// search (title substring) and tags (comma separated, any match).
func (h *Handler) ListPublicBlogs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	pageSize, err := getIntParam(r, "page_size", defaultPublicPageSize, 1, maxPublicPageSize)
	if err != nil {
		writeParamError(rw, err)
		return
	}

	q := models.PublicBlogQuery{
		PageSize: pageSize,
		Search:   getSearchParam(r),
		Tags:     getTagsParam(r),
	}
	if token := strings.TrimSpace(r.URL.Query().Get("cursor")); token != "" {
		cursor, err := DecodeCursor(token)
		if err != nil {
			rw.BadRequest("Invalid cursor")
			return
		}
		q.Cursor = cursor
	}

	blogs, next, err := h.db.ListPublicBlogs(r.Context(), q)
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}

	page := models.PublicBlogPage{Blogs: blogs}
	pagination := &PaginationMeta{Count: len(blogs), PageSize: pageSize}
	if next != nil {
		token, err := EncodeCursor(next)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode cursor")
			rw.InternalError("Failed to build next page cursor")
			return
		}
		page.NextCursor = &token
		pagination.HasMore = true
		pagination.NextCursor = token
	}

	rw.SuccessWithPagination(page, pagination)
}

// GetPublicBlog serves a published post by slug, with likes that include
// unflushed clicks and a few suggestions to read next.
func (h *Handler) GetPublicBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	slug := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "slug")))
	if slug == "" || len(slug) > 200 {
		rw.NotFound("Blog not found")
		return
	}

	var blog *models.Blog
	err := h.likes.View(func(pending func(int64) int64) error {
		b, err := h.db.GetPublishedBlogBySlug(r.Context(), slug)
		if err != nil {
			return err
		}
		b.Likes += pending(b.ID)
		blog = b
		return nil
	})
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}

	suggestions, err := h.db.Suggestions(r.Context(), blog.ID, database.SuggestionCount)
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}
	if suggestions == nil {
		suggestions = []models.Blog{}
	}

	rw.Success(models.BlogDetail{Blog: *blog, Suggestions: suggestions})
}

// LatestBlogs serves the newest published posts for the home page.
func (h *Handler) LatestBlogs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	blogs, err := cache.GetOrLoad(r.Context(), h.cache, cache.KeyLatestBlogs,
		func(ctx context.Context) ([]models.Blog, error) {
			return h.db.LatestBlogs(ctx, database.LatestCount)
		})
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}
	rw.Success(blogs)
}

// PublicTags serves the sorted distinct tags of published posts.
func (h *Handler) PublicTags(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	tags, err := cache.GetOrLoad(r.Context(), h.cache, cache.KeyTags, h.db.PublicTags)
	if err != nil {
		respondStoreError(rw, r, err, "Tags")
		return
	}
	rw.Success(tags)
}

// LikeBlog accepts a batch of clicks for a published post. The clicks are
// buffered and written by the like flusher, so the response is 202 with the
// count readers will see.
func (h *Handler) LikeBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	var req models.LikeRequest
	if !bind(rw, w, r, &req) {
		return
	}
	if limit := h.maxLikeIncrement(); req.Increment > limit {
		verr := validation.NewFieldError("increment", "max", fmt.Sprintf("increment must be at most %d", limit))
		rw.ValidationError(verr.Error(), verr.Details())
		return
	}

	published, err := h.db.IsPublished(r.Context(), id)
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}
	if !published {
		rw.NotFound("Blog not found")
		return
	}

	h.likes.Add(id, int64(req.Increment))

	total, err := h.likeCount(r.Context(), id)
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}
	rw.Accepted(models.LikeResult{ID: id, Likes: total})
}

// likeCount is the stored count plus clicks not yet committed.
func (h *Handler) likeCount(ctx context.Context, id int64) (total int64, err error) {
	err = h.likes.View(func(pending func(int64) int64) error {
		stored, err := h.db.GetLikes(ctx, id)
		if err != nil {
			return err
		}
		total = stored + pending(id)
		return nil
	})
	return total, err
}
