// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"net/http"

	"github.com/tomtom215/folio/internal/audit"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
)

// Admin post list paging.
const (
	defaultAdminPageSize = 10
	maxAdminPageSize     = 100
)

// blogResource names posts in 404 and 409 messages.
const blogResource = "Blog"

// ListBlogs serves one offset page of every post, drafts included.
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	page, err := getIntParam(r, "page", 1, 1, 1<<20)
	if err != nil {
		writeParamError(rw, err)
		return
	}
	pageSize, err := getIntParam(r, "page_size", defaultAdminPageSize, 1, maxAdminPageSize)
	if err != nil {
		writeParamError(rw, err)
		return
	}

	result, err := h.db.ListBlogs(r.Context(), models.BlogListQuery{
		Page:     page,
		PageSize: pageSize,
		Search:   getSearchParam(r),
	})
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}

	rw.SuccessWithPagination(result, &PaginationMeta{
		Total:    result.Total,
		Count:    len(result.Data),
		Page:     result.Page,
		PageSize: result.PageSize,
		HasMore:  result.Page < result.TotalPages,
	})
}

// GetBlog serves one post with content and tags, published or not.
func (h *Handler) GetBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	blog, err := h.db.GetBlog(r.Context(), id)
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}
	rw.Success(blog)
}

// CreateBlog adds a post. A taken slug is a conflict.
func (h *Handler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var in models.BlogInput
	if !bind(rw, w, r, &in) {
		return
	}

	blog, err := h.db.CreateBlog(r.Context(), &in)
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}
	h.invalidateBlogs()
	h.recordAudit(r, audit.EventTypeContentCreated, "create", "blog", blog.ID, blog.Slug)

	logging.Ctx(r.Context()).Info().
		Int64("blog_id", blog.ID).
		Str("slug", blog.Slug).
		Bool("published", blog.Published).
		Msg("Blog created")
	rw.Created(blog)
}

// UpdateBlog replaces a post and its tags.
func (h *Handler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	var in models.BlogInput
	if !bind(rw, w, r, &in) {
		return
	}

	blog, err := h.db.UpdateBlog(r.Context(), id, &in)
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}
	h.invalidateBlogs()
	h.recordAudit(r, audit.EventTypeContentUpdated, "update", "blog", id, blog.Slug)
	rw.Success(blog)
}

// DeleteBlog removes a post and its tags.
func (h *Handler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	if err := h.db.DeleteBlog(r.Context(), id); err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}
	h.invalidateBlogs()
	h.recordAudit(r, audit.EventTypeContentDeleted, "delete", "blog", id, "")

	logging.Ctx(r.Context()).Info().Int64("blog_id", id).Msg("Blog deleted")
	rw.Success(models.MessageResponse{Message: "Blog deleted"})
}

// PublishBlog flips a post's visibility.
func (h *Handler) PublishBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	var req models.PublishRequest
	if !bind(rw, w, r, &req) {
		return
	}

	blog, err := h.db.SetPublished(r.Context(), id, *req.Published)
	if err != nil {
		respondStoreError(rw, r, err, blogResource)
		return
	}
	h.invalidateBlogs()
	action := "unpublish"
	if blog.Published {
		action = "publish"
	}
	h.recordAudit(r, audit.EventTypeContentPublished, action, "blog", id, blog.Slug)

	logging.Ctx(r.Context()).Info().Int64("blog_id", id).Bool("published", blog.Published).Msg("Blog visibility changed")
	rw.Success(blog)
}

func (h *Handler) invalidateBlogs() {
	h.cache.Delete(cache.BlogKeys...)
}
