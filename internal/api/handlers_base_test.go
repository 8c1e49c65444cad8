// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/audit"
	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/backup"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/captcha"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/database"
	"github.com/tomtom215/folio/internal/likes"
	"github.com/tomtom215/folio/internal/seo"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct horse battery"
	testCookieName    = "Auth"
)

// testDBMutex serializes DuckDB opens across parallel tests.
var testDBMutex sync.Mutex

// stubVerifier stands in for Turnstile.
type stubVerifier struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubVerifier) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

var _ captcha.Verifier = (*stubVerifier)(nil)

// testEnv is a fully wired API on an in-memory database.
type testEnv struct {
	db       *database.DB
	audit    *audit.Logger
	backups  *backup.Manager
	cache    *cache.Cache
	likes    *likes.Accumulator
	captcha  *stubVerifier
	handler  *Handler
	server   http.Handler
	config   *config.Config
	authMW   *auth.Middleware
	flusher  *likes.Flusher
	renderer *seo.Renderer
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "development"},
		Security: config.SecurityConfig{
			AdminEmail:         testAdminEmail,
			AdminPassword:      testAdminPassword,
			JWTSecret:          "0123456789abcdef0123456789abcdef",
			SessionTimeout:     time.Hour,
			CookieName:         testCookieName,
			RateLimitDisabled:  true,
			LockoutMaxAttempts: 3,
			LockoutDuration:    time.Minute,
		},
		Site:  config.SiteConfig{BaseURL: "https://example.com", Name: "Folio"},
		Likes: config.LikesConfig{FlushInterval: time.Hour, MaxPending: 100, MaxIncrement: 50},
		Cache: config.CacheConfig{TTL: time.Minute},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()

	testDBMutex.Lock()
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 1})
	testDBMutex.Unlock()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	authSvc, err := auth.NewService(&cfg.Security, auth.NewMemorySessionStore())
	if err != nil {
		t.Fatalf("auth.NewService() error = %v", err)
	}
	authMW := auth.NewMiddleware(authSvc, auth.CookieConfig{Name: testCookieName})

	renderer, err := seo.NewRenderer(cfg.Site.BaseURL)
	if err != nil {
		t.Fatal(err)
	}

	backups, err := backup.NewManager(db, t.TempDir(), 3)
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		db:       db,
		audit:    audit.NewLogger(audit.NewDuckDBStore(db.Conn()), audit.DefaultConfig()),
		backups:  backups,
		cache:    cache.New(cfg.Cache.TTL),
		likes:    likes.NewAccumulator(cfg.Likes.MaxPending),
		captcha:  &stubVerifier{},
		config:   cfg,
		authMW:   authMW,
		renderer: renderer,
	}
	env.flusher = likes.NewFlusher(env.likes, db, cfg.Likes.FlushInterval)

	env.handler, err = NewHandler(HandlerDeps{
		DB:      db,
		Audit:   env.audit,
		Backups: env.backups,
		Cache:   env.cache,
		Likes:   env.likes,
		Captcha: env.captcha,
		SEO:     renderer,
		Auth:    authMW,
		Config:  cfg,
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	chiMW := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	env.server = NewRouter(env.handler, chiMW, authMW, nil).SetupChi()
	return env
}

// auditEvents flushes the audit buffer and returns the stored events,
// newest first.
func (e *testEnv) auditEvents(t *testing.T, filter audit.Filter) []audit.Event {
	t.Helper()
	e.audit.Flush(context.Background())
	events, _, err := e.audit.Query(context.Background(), filter)
	if err != nil {
		t.Fatalf("audit query: %v", err)
	}
	return events
}

// envelope mirrors APIResponse with Data left raw for typed decoding.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

// decodeData asserts the status and decodes the envelope data into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, status int, dst interface{}) envelope {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d\nbody: %s", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("failed to decode data: %v\nbody: %s", err, rec.Body.String())
		}
	}
	return env
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d\nbody: %s", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil || env.Error.Code != code {
		t.Fatalf("error = %+v, want code %s", env.Error, code)
	}
}

// login signs in and returns the auth cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login",
		`{"email":"`+testAdminEmail+`","password":"`+testAdminPassword+`","turnstile_token":"tok"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatal("login did not set the auth cookie")
	return nil
}

func blogJSON(slug string, published bool, tags ...string) string {
	tagJSON, _ := json.Marshal(tags)
	if tags == nil {
		tagJSON = []byte("[]")
	}
	pub := "false"
	if published {
		pub = "true"
	}
	return `{"title":"Post ` + slug + `","slug":"` + slug + `","description":"About ` + slug +
		`","content":{"blocks":[{"type":"paragraph","text":"hi"}]},"published":` + pub +
		`,"tags":` + string(tagJSON) + `}`
}
