// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/folio/internal/audit"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
)

// GetProfile serves the public profile. The response data is null until the
// admin saves one.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	profile, err := cache.GetOrLoad(r.Context(), h.cache, cache.KeyProfile, h.db.GetProfile)
	if err != nil {
		respondStoreError(rw, r, err, "Profile")
		return
	}
	rw.Success(profile)
}

// AdminGetProfile reads the profile without the cache.
func (h *Handler) AdminGetProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	profile, err := h.db.GetProfile(r.Context())
	if err != nil {
		respondStoreError(rw, r, err, "Profile")
		return
	}
	rw.Success(profile)
}

// UpdateProfile creates or replaces the profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var in models.ProfileInput
	if !bind(rw, w, r, &in) {
		return
	}

	profile, err := h.db.UpsertProfile(r.Context(), &in)
	if err != nil {
		respondStoreError(rw, r, err, "Profile")
		return
	}
	h.cache.Delete(cache.KeyProfile)
	h.recordAudit(r, audit.EventTypeContentUpdated, "update", "profile", 0, "")

	logging.Ctx(r.Context()).Info().Msg("Profile updated")
	rw.Success(profile)
}

// ListPublicProjects serves the portfolio, newest first.
func (h *Handler) ListPublicProjects(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	projects, err := cache.GetOrLoad(r.Context(), h.cache, cache.KeyProjects,
		func(ctx context.Context) ([]models.Project, error) {
			return h.db.ListProjects(ctx, true)
		})
	if err != nil {
		respondStoreError(rw, r, err, "Projects")
		return
	}
	rw.Success(projects)
}

// ListProjects serves the admin project list in creation order.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	projects, err := h.db.ListProjects(r.Context(), false)
	if err != nil {
		respondStoreError(rw, r, err, "Projects")
		return
	}
	rw.Success(projects)
}

// GetProject serves one project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	project, err := h.db.GetProject(r.Context(), id)
	if err != nil {
		respondStoreError(rw, r, err, "Project")
		return
	}
	rw.Success(project)
}

// CreateProject adds a project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var in models.ProjectInput
	if !bind(rw, w, r, &in) {
		return
	}

	project, err := h.db.CreateProject(r.Context(), &in)
	if err != nil {
		respondStoreError(rw, r, err, "Project")
		return
	}
	h.cache.Delete(cache.KeyProjects)
	h.recordAudit(r, audit.EventTypeContentCreated, "create", "project", project.ID, project.Title)

	logging.Ctx(r.Context()).Info().Int64("project_id", project.ID).Msg("Project created")
	rw.Created(project)
}

// UpdateProject replaces a project.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	var in models.ProjectInput
	if !bind(rw, w, r, &in) {
		return
	}

	project, err := h.db.UpdateProject(r.Context(), id, &in)
	if err != nil {
		respondStoreError(rw, r, err, "Project")
		return
	}
	h.cache.Delete(cache.KeyProjects)
	h.recordAudit(r, audit.EventTypeContentUpdated, "update", "project", id, project.Title)
	rw.Success(project)
}

// DeleteProject removes a project.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	if err := h.db.DeleteProject(r.Context(), id); err != nil {
		respondStoreError(rw, r, err, "Project")
		return
	}
	h.cache.Delete(cache.KeyProjects)
	h.recordAudit(r, audit.EventTypeContentDeleted, "delete", "project", id, "")

	logging.Ctx(r.Context()).Info().Int64("project_id", id).Msg("Project deleted")
	rw.Success(models.MessageResponse{Message: "Project deleted"})
}
