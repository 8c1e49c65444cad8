// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/folio/internal/audit"
	"github.com/tomtom215/folio/internal/auth"
)

// ListAuditEvents serves one page of the audit trail, newest first.
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	page, err := getIntParam(r, "page", 1, 1, 1<<20)
	if err != nil {
		writeParamError(rw, err)
		return
	}
	pageSize, err := getIntParam(r, "page_size", audit.DefaultQueryLimit, 1, audit.MaxQueryLimit)
	if err != nil {
		writeParamError(rw, err)
		return
	}

	filter := audit.Filter{Limit: pageSize, Offset: (page - 1) * pageSize}
	if v := r.URL.Query().Get("type"); v != "" {
		filter.Type = audit.EventType(v)
		if !filter.Type.Valid() {
			rw.BadRequest("invalid type")
			return
		}
	}
	if v := r.URL.Query().Get("outcome"); v != "" {
		filter.Outcome = audit.Outcome(v)
		if !filter.Outcome.Valid() {
			rw.BadRequest("invalid outcome")
			return
		}
	}

	events, total, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		respondStoreError(rw, r, err, "Audit events")
		return
	}

	rw.SuccessWithPagination(events, &PaginationMeta{
		Total:    int(total),
		Count:    len(events),
		Page:     page,
		PageSize: pageSize,
		HasMore:  int64(page*pageSize) < total,
	})
}

// recordAudit logs an admin action. The actor is the session's email.
func (h *Handler) recordAudit(r *http.Request, eventType audit.EventType, action, targetType string, targetID int64, description string) {
	event := &audit.Event{
		Type:        eventType,
		Actor:       actor(r),
		Action:      action,
		TargetType:  targetType,
		Description: description,
	}
	if targetID > 0 {
		event.TargetID = strconv.FormatInt(targetID, 10)
	}
	h.audit.Record(r, event)
}

func actor(r *http.Request) string {
	if session, ok := auth.SessionFromContext(r.Context()); ok {
		return session.Email
	}
	return ""
}
