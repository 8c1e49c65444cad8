// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/folio/internal/logging"
)

type contextKey string

// SessionContextKey holds the authenticated *Session on admin requests.
const SessionContextKey contextKey = "session"

// SessionFromContext returns the session RequireAdmin stored, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*Session)
	return session, ok
}

// CookieConfig controls the auth cookie attributes.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Middleware guards admin routes and manages the auth cookie.
type Middleware struct {
	service *Service
	cookie  CookieConfig

	// Unauthorized writes the 401 response. The API layer sets this so the
	// body uses the standard error envelope.
	Unauthorized func(w http.ResponseWriter, r *http.Request)
}

// NewMiddleware creates the admin guard.
func NewMiddleware(service *Service, cookie CookieConfig) *Middleware {
	return &Middleware{
		service: service,
		cookie:  cookie,
		Unauthorized: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		},
	}
}

// RequireAdmin rejects requests without a valid token and live session.
// It never redirects.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.service.Authenticate(r.Context(), m.TokenFromRequest(r))
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Admin request rejected")
			m.Unauthorized(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromRequest returns the bearer token, falling back to the cookie.
func (m *Middleware) TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(m.cookie.Name); err == nil {
		return cookie.Value
	}
	return ""
}

// SetAuthCookie stores the token in an HttpOnly, SameSite=Strict cookie.
func (m *Middleware) SetAuthCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   m.service.CookieMaxAge(),
		Expires:  expires,
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearAuthCookie expires the auth cookie.
func (m *Middleware) ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Service returns the underlying auth service.
func (m *Middleware) Service() *Service {
	return m.service
}
