// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitLogin(t *testing.T) {
	mw := NewChiMiddleware(DefaultChiMiddlewareConfig())
	handler := mw.RateLimitLogin()(okHandler())
	before := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("login"))

	for i := 0; i < LoginRateLimit; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	expectError(t, rec, http.StatusTooManyRequests, ErrCodeTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}

	if got := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("login")) - before; got != 1 {
		t.Errorf("rate limit hits = %v, want 1", got)
	}

	// Another client has its own budget.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "198.51.100.1:5000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()

	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	handler := mw.RateLimitLogin()(okHandler())
	for i := 0; i < LoginRateLimit*3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d limited while disabled", i+1)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://example.com"}
	handler := NewChiMiddleware(cfg).CORS()(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/contact", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/contact", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin allowed: %q", got)
	}
}

func TestLikeRateLimit(t *testing.T) {
	env := newTestEnv(t)

	// The test env disables route limits; build a router with the bucket on.
	limiter := auth.NewRateLimiter(1, time.Hour, 2)
	server := NewRouter(env.handler, NewChiMiddleware(nil), env.authMW, limiter).SetupChi()

	cookie := env.login(t)
	rec := env.do(t, http.MethodPost, "/api/v1/admin/blogs", blogJSON("limited", true), cookie)
	var blog struct {
		ID int64 `json:"id"`
	}
	decodeData(t, rec, http.StatusCreated, &blog)

	path := "/api/v1/blogs/" + strconv.FormatInt(blog.ID, 10) + "/likes"
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"increment":1}`))
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusAccepted || codes[1] != http.StatusAccepted || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [202 202 429]", codes)
	}
}
