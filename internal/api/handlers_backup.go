// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/folio/internal/audit"
	"github.com/tomtom215/folio/internal/backup"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
)

// ListBackups serves the archives on disk, newest first.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	backups, err := h.backups.List()
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to list backups")
		rw.InternalError("Failed to list backups")
		return
	}
	rw.Success(backups)
}

// CreateBackup takes a backup now.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	b, err := h.backups.Create(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Backup failed")
		h.audit.Record(r, &audit.Event{
			Type:        audit.EventTypeDataBackup,
			Severity:    audit.SeverityWarning,
			Outcome:     audit.OutcomeFailure,
			Actor:       actor(r),
			Action:      "create",
			TargetType:  "backup",
			Description: "backup failed",
		})
		rw.DatabaseError("Backup failed")
		return
	}

	h.audit.Record(r, &audit.Event{
		Type:       audit.EventTypeDataBackup,
		Actor:      actor(r),
		Action:     "create",
		TargetType: "backup",
		TargetID:   b.Name,
		Metadata:   audit.Metadata(map[string]interface{}{"size": b.Size, "checksum": b.Checksum}),
	})
	rw.Created(b)
}

// DownloadBackup streams one archive.
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	f, err := h.backups.Open(name)
	if err != nil {
		respondBackupError(NewResponseWriter(w, r), r, err)
		return
	}
	defer f.Close() //nolint:errcheck // read-only

	info, err := f.Stat()
	if err != nil {
		respondBackupError(NewResponseWriter(w, r), r, err)
		return
	}

	h.audit.Record(r, &audit.Event{
		Type:       audit.EventTypeDataExport,
		Actor:      actor(r),
		Action:     "download",
		TargetType: "backup",
		TargetID:   name,
	})

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// DeleteBackup removes one archive.
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name := chi.URLParam(r, "name")

	if err := h.backups.Delete(name); err != nil {
		respondBackupError(rw, r, err)
		return
	}

	h.audit.Record(r, &audit.Event{
		Type:       audit.EventTypeDataBackup,
		Actor:      actor(r),
		Action:     "delete",
		TargetType: "backup",
		TargetID:   name,
	})
	logging.Ctx(r.Context()).Info().Str("name", name).Msg("Backup deleted")
	rw.Success(models.MessageResponse{Message: "Backup deleted"})
}

func respondBackupError(rw *ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, backup.ErrNotFound) {
		rw.NotFound("Backup not found")
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Msg("Backup operation failed")
	rw.InternalError("Backup operation failed")
}
