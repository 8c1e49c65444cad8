// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/folio/internal/audit"
	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
)

// Login signs the admin in. Turnstile is checked before credentials so bots
// never reach the lockout counters.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.LoginRequest
	if !bind(rw, w, r, &req) {
		return
	}
	if !h.verifyCaptcha(rw, r, req.TurnstileToken) {
		return
	}

	result, err := h.auth.Service().Login(r.Context(), req.Email, req.Password, auth.ClientIP(r))
	if err != nil {
		var locked *auth.LockedError
		switch {
		case errors.As(err, &locked):
			h.recordLogin(r, req.Email, audit.EventTypeAuthLockout, audit.SeverityCritical, "too many failed attempts")
			rw.TooManyRequests("Too many failed login attempts, please try again later", locked.Remaining)
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.recordLogin(r, req.Email, audit.EventTypeAuthFailure, audit.SeverityWarning, "invalid credentials")
			rw.Unauthorized("Invalid email or password")
		default:
			logging.Ctx(r.Context()).Error().Err(err).Msg("Login failed")
			rw.InternalError("Login failed")
		}
		return
	}

	h.recordLogin(r, result.Session.Email, audit.EventTypeAuthSuccess, audit.SeverityInfo, "")
	h.auth.SetAuthCookie(w, result.Token, result.Session.ExpiresAt)
	expires := result.Session.ExpiresAt
	rw.Success(models.AuthStatus{
		Authenticated: true,
		Email:         result.Session.Email,
		ExpiresAt:     &expires,
	})
}

// Logout ends the current session, if any, and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	session, err := h.auth.Service().Logout(r.Context(), h.auth.TokenFromRequest(r))
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to delete session on logout")
	}
	if session != nil {
		h.audit.Record(r, &audit.Event{
			Type:   audit.EventTypeLogout,
			Actor:  session.Email,
			Action: "logout",
		})
	}
	h.auth.ClearAuthCookie(w)
	rw.Success(models.MessageResponse{Message: "Logged out"})
}

// CheckAuth reports whether the caller holds a live admin session. Anonymous
// callers get authenticated=false, never an error.
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	session, err := h.auth.Service().Authenticate(r.Context(), h.auth.TokenFromRequest(r))
	if err != nil {
		rw.Success(models.AuthStatus{Authenticated: false})
		return
	}
	expires := session.ExpiresAt
	rw.Success(models.AuthStatus{
		Authenticated: true,
		Email:         session.Email,
		ExpiresAt:     &expires,
	})
}

// recordLogin audits a login attempt. Only the attempted address is known,
// so it becomes the actor.
func (h *Handler) recordLogin(r *http.Request, email string, eventType audit.EventType, severity audit.Severity, description string) {
	outcome := audit.OutcomeSuccess
	if eventType != audit.EventTypeAuthSuccess {
		outcome = audit.OutcomeFailure
	}
	h.audit.Record(r, &audit.Event{
		Type:        eventType,
		Severity:    severity,
		Outcome:     outcome,
		Actor:       email,
		Action:      "login",
		Description: description,
	})
}
