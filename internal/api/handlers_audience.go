// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"encoding/csv"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/folio/internal/audit"
	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/captcha"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/models"
)

// Subscribe adds a newsletter subscriber. Re-subscribing is not an error and
// does not reactivate a disabled address.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.SubscribeRequest
	if !bind(rw, w, r, &req) {
		return
	}

	created, err := h.db.Subscribe(r.Context(), req.Email)
	if err != nil {
		respondStoreError(rw, r, err, "Subscriber")
		return
	}
	metrics.RecordSubscription(created)

	if !created {
		rw.Success(models.MessageResponse{Message: models.MsgAlreadySubscribed})
		return
	}
	logging.Ctx(r.Context()).Info().Str("email", logging.MaskEmail(req.Email)).Msg("Newsletter subscription")
	rw.Created(models.MessageResponse{Message: models.MsgSubscribed})
}

// ListSubscribers serves every subscriber, newest first.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	subs, err := h.db.ListSubscribers(r.Context())
	if err != nil {
		respondStoreError(rw, r, err, "Subscribers")
		return
	}
	rw.Success(subs)
}

// UpdateSubscriber toggles whether a subscriber receives the newsletter.
func (h *Handler) UpdateSubscriber(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	var req models.SubscriberStatusRequest
	if !bind(rw, w, r, &req) {
		return
	}

	if err := h.db.SetSubscriberActive(r.Context(), id, *req.Active); err != nil {
		respondStoreError(rw, r, err, "Subscriber")
		return
	}
	action := "deactivate"
	if *req.Active {
		action = "activate"
	}
	h.recordAudit(r, audit.EventTypeAudienceUpdated, action, "subscriber", id, "")
	rw.Success(models.MessageResponse{Message: models.MsgSubscriberUpdated})
}

// DeleteSubscriber removes a subscriber.
func (h *Handler) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	if err := h.db.DeleteSubscriber(r.Context(), id); err != nil {
		respondStoreError(rw, r, err, "Subscriber")
		return
	}
	h.recordAudit(r, audit.EventTypeAudienceDeleted, "delete", "subscriber", id, "")
	rw.Success(models.MessageResponse{Message: models.MsgSubscriberDeleted})
}

// ExportSubscribers streams the active subscribers as CSV.
func (h *Handler) ExportSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.db.ListActiveSubscribers(r.Context())
	if err != nil {
		respondStoreError(NewResponseWriter(w, r), r, err, "Subscribers")
		return
	}

	h.audit.Record(r, &audit.Event{
		Type:       audit.EventTypeDataExport,
		Actor:      actor(r),
		Action:     "export",
		TargetType: "subscribers",
		Metadata:   audit.Metadata(map[string]int{"rows": len(subs)}),
	})

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="subscribers.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"email", "created_at"})
	for _, s := range subs {
		_ = cw.Write([]string{s.Email, s.CreatedAt.UTC().Format(time.RFC3339)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Subscriber export interrupted")
	}
}

// SubmitContact verifies the Turnstile token and stores the message.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.ContactRequest
	if !bind(rw, w, r, &req) {
		return
	}
	if !h.verifyCaptcha(rw, r, req.TurnstileToken) {
		return
	}

	contact, err := h.db.CreateContact(r.Context(), req.Contact())
	if err != nil {
		respondStoreError(rw, r, err, "Contact")
		return
	}
	metrics.ContactSubmissions.Inc()

	logging.Ctx(r.Context()).Info().
		Int64("contact_id", contact.ID).
		Str("email", logging.MaskEmail(contact.Email)).
		Msg("Contact message received")
	rw.Created(models.MessageResponse{Message: "Message sent"})
}

// ListContacts serves stored messages, newest first, with optional search.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	contacts, err := h.db.ListContacts(r.Context(), getSearchParam(r))
	if err != nil {
		respondStoreError(rw, r, err, "Contacts")
		return
	}
	rw.Success(contacts)
}

// GetContact serves one stored message.
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	contact, err := h.db.GetContact(r.Context(), id)
	if err != nil {
		respondStoreError(rw, r, err, "Contact")
		return
	}
	rw.Success(contact)
}

// DeleteContact removes a stored message.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r)
	if !ok {
		return
	}

	if err := h.db.DeleteContact(r.Context(), id); err != nil {
		respondStoreError(rw, r, err, "Contact")
		return
	}
	h.recordAudit(r, audit.EventTypeAudienceDeleted, "delete", "contact", id, "")
	rw.Success(models.MessageResponse{Message: "Contact deleted"})
}

// verifyCaptcha checks a Turnstile token and writes the error response when
// it is rejected or Turnstile cannot be reached.
func (h *Handler) verifyCaptcha(rw *ResponseWriter, r *http.Request, token string) bool {
	err := h.captcha.Verify(r.Context(), token, auth.ClientIP(r))
	switch {
	case err == nil:
		return true
	case errors.Is(err, captcha.ErrVerificationFailed):
		rw.BadRequest("captcha verification failed")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Turnstile verification unavailable")
		rw.ExternalServiceError("captcha service unavailable")
	}
	return false
}
