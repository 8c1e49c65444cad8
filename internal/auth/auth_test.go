// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/folio/internal/config"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct horse battery"
	testJWTSecret     = "0123456789abcdef0123456789abcdef"
)

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		AdminEmail:         testAdminEmail,
		AdminPassword:      testAdminPassword,
		JWTSecret:          testJWTSecret,
		SessionTimeout:     time.Hour,
		CookieName:         "Auth",
		LockoutMaxAttempts: 3,
		LockoutDuration:    time.Minute,
	}
}

func newTestService(t *testing.T) (*Service, SessionStore) {
	t.Helper()
	store := NewMemorySessionStore()
	svc, err := NewService(testSecurityConfig(), store)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, store
}

func newInMemoryBadger(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	session, err := NewSession(testAdminEmail, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	token, err := m.GenerateToken(session)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.ID != session.ID || claims.Email != testAdminEmail {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(session.ExpiresAt) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt.Time, session.ExpiresAt)
	}
}

func TestJWTManager_RejectsTampering(t *testing.T) {
	m, _ := NewJWTManager(testSecurityConfig())

	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("empty secret should be rejected")
	}

	other, _ := NewJWTManager(&config.SecurityConfig{JWTSecret: strings.Repeat("x", 32), SessionTimeout: time.Hour})
	session, _ := NewSession(testAdminEmail, time.Hour)
	foreign, _ := other.GenerateToken(session)
	if _, err := m.ValidateToken(foreign); err == nil {
		t.Error("token signed with another secret was accepted")
	}

	// alg=none
	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Email: testAdminEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ValidateToken(unsigned); err == nil {
		t.Error("alg=none token was accepted")
	}

	expired, _ := NewSession(testAdminEmail, -time.Minute)
	old, _ := m.GenerateToken(expired)
	if _, err := m.ValidateToken(old); err == nil {
		t.Error("expired token was accepted")
	}
}

func TestAdminAuthenticator(t *testing.T) {
	a, err := NewAdminAuthenticator(" Admin@Example.com ", testAdminPassword)
	if err != nil {
		t.Fatalf("NewAdminAuthenticator() error = %v", err)
	}
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", testAdminEmail, testAdminPassword, false},
		{"email case-insensitive", "ADMIN@example.com", testAdminPassword, false},
		{"wrong password", testAdminEmail, "nope", true},
		{"wrong email", "other@example.com", testAdminPassword, true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Verify(tt.email, tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Verify() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}

	if _, err := NewAdminAuthenticator("", "x"); err == nil {
		t.Error("missing e-mail should be rejected")
	}
}

func testSessionStore(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	session, _ := NewSession(testAdminEmail, time.Hour)
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Email != testAdminEmail || !got.ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("Get() = %+v", got)
	}

	if err := store.Touch(ctx, session.ID); err != nil {
		t.Errorf("Touch() error = %v", err)
	}
	if err := store.Touch(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Touch(missing) error = %v, want ErrSessionNotFound", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrSessionNotFound", err)
	}

	if err := store.Delete(ctx, session.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, session.ID); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
}

func TestMemorySessionStore(t *testing.T) {
	testSessionStore(t, NewMemorySessionStore())
}

func TestBadgerSessionStore(t *testing.T) {
	testSessionStore(t, NewBadgerSessionStore(newInMemoryBadger(t)))
}

func TestBadgerSessionStore_RejectsExpiredSession(t *testing.T) {
	store := NewBadgerSessionStore(newInMemoryBadger(t))
	expired, _ := NewSession(testAdminEmail, -time.Second)
	if err := store.Create(context.Background(), expired); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Create(expired) error = %v, want ErrSessionExpired", err)
	}
}

func TestMemorySessionStore_CleanupExpired(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	live, _ := NewSession(testAdminEmail, time.Hour)
	dead, _ := NewSession(testAdminEmail, -time.Minute)
	_ = store.Create(ctx, live)
	_ = store.Create(ctx, dead)

	if _, err := store.Get(ctx, dead.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Get(expired) error = %v, want ErrSessionExpired", err)
	}
	n, err := store.CleanupExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("CleanupExpired() = %d, %v; want 1, nil", n, err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestLockoutManager(t *testing.T) {
	m := NewLockoutManager(&LockoutConfig{
		MaxAttempts:              2,
		LockoutDuration:          time.Minute,
		EnableExponentialBackoff: true,
		MaxLockoutDuration:       3 * time.Minute,
		AttemptWindow:            time.Hour,
	})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if err := m.RecordFailure("email:a", "1.2.3.4"); err != nil {
		t.Fatalf("first failure locked: %v", err)
	}
	err := m.RecordFailure("email:a", "1.2.3.4")
	var locked *LockedError
	if !errors.As(err, &locked) || locked.Remaining != time.Minute {
		t.Fatalf("second failure = %v, want 1m lockout", err)
	}

	// The IP is locked too, so another account from the same address is refused.
	if err := m.Check("email:b", "1.2.3.4"); err == nil {
		t.Error("IP lockout not enforced")
	}
	if err := m.Check("email:b", "5.6.7.8"); err != nil {
		t.Errorf("unrelated login refused: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := m.Check("email:a", "1.2.3.4"); err != nil {
		t.Errorf("lockout did not expire: %v", err)
	}

	_ = m.RecordFailure("email:a", "9.9.9.9")
	err = m.RecordFailure("email:a", "9.9.9.9")
	if !errors.As(err, &locked) || locked.Remaining != 2*time.Minute {
		t.Errorf("second lockout = %v, want 2m backoff", err)
	}

	m.RecordSuccess("email:a", "9.9.9.9")
	if err := m.Check("email:a", "9.9.9.9"); err != nil {
		t.Errorf("success did not clear lockout: %v", err)
	}
}

func TestCalculateLockoutDuration(t *testing.T) {
	cfg := &LockoutConfig{LockoutDuration: time.Minute, EnableExponentialBackoff: true, MaxLockoutDuration: 5 * time.Minute}
	tests := []struct {
		count int
		want  time.Duration
	}{
		{0, time.Minute},
		{1, 2 * time.Minute},
		{2, 4 * time.Minute},
		{3, 5 * time.Minute},
		{60, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := calculateLockoutDuration(cfg, tt.count); got != tt.want {
			t.Errorf("calculateLockoutDuration(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestService_LoginLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, testAdminEmail, testAdminPassword, "10.0.0.1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	session, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if session.ID != res.Session.ID {
		t.Errorf("session id = %s, want %s", session.ID, res.Session.ID)
	}

	ended, err := svc.Logout(ctx, res.Token)
	if err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if ended == nil || ended.ID != res.Session.ID {
		t.Errorf("Logout() session = %+v, want %s", ended, res.Session.ID)
	}
	if _, err := svc.Authenticate(ctx, res.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Authenticate() after logout error = %v, want ErrUnauthenticated", err)
	}
	if ended, err := svc.Logout(ctx, res.Token); err != nil || ended != nil {
		t.Errorf("second Logout() = %v, %v", ended, err)
	}
	if ended, err := svc.Logout(ctx, "garbage"); err != nil || ended != nil {
		t.Errorf("Logout(garbage) = %v, %v", ended, err)
	}
}

func TestService_LoginLocksOut(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Login(ctx, testAdminEmail, "wrong", "10.0.0.2"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d error = %v, want ErrInvalidCredentials", i, err)
		}
	}
	var locked *LockedError
	if _, err := svc.Login(ctx, testAdminEmail, "wrong", "10.0.0.2"); !errors.As(err, &locked) {
		t.Fatalf("third attempt error = %v, want *LockedError", err)
	}
	// Correct password is still refused while locked.
	if _, err := svc.Login(ctx, testAdminEmail, testAdminPassword, "10.0.0.2"); !errors.As(err, &locked) {
		t.Errorf("locked login error = %v, want *LockedError", err)
	}
	if !errors.Is(locked, ErrAccountLocked) {
		t.Error("LockedError should match ErrAccountLocked")
	}
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	mw := NewMiddleware(svc, CookieConfig{Name: "Auth"})

	var seen *Session
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	res, err := svc.Login(context.Background(), testAdminEmail, testAdminPassword, "10.0.0.3")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "Auth", Value: res.Token}) }, http.StatusNoContent},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+res.Token) }, http.StatusNoContent},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+res.Token) }, http.StatusUnauthorized},
		{"garbage cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "Auth", Value: "x.y.z"}) }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/blogs", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusNoContent && (seen == nil || seen.ID != res.Session.ID) {
				t.Error("session missing from context")
			}
		})
	}
}

func TestMiddleware_Cookies(t *testing.T) {
	svc, _ := newTestService(t)
	mw := NewMiddleware(svc, CookieConfig{Name: "Auth", Secure: true})

	rec := httptest.NewRecorder()
	mw.SetAuthCookie(rec, "tok", time.Now().Add(time.Hour))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies", len(cookies))
	}
	c := cookies[0]
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode || c.Path != "/" || c.MaxAge != 3600 {
		t.Errorf("cookie attributes = %+v", c)
	}

	rec = httptest.NewRecorder()
	mw.ClearAuthCookie(rec)
	if c := rec.Result().Cookies()[0]; c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cleared cookie = %+v", c)
	}
}

func TestSessionStoreFactory(t *testing.T) {
	f, err := NewSessionStoreFactory(SessionStoreMemory, "")
	if err != nil {
		t.Fatalf("memory factory error = %v", err)
	}
	if _, ok := f.CreateStore().(*MemorySessionStore); !ok {
		t.Error("memory factory returned wrong store")
	}
	_ = f.Close()

	f, err = NewSessionStoreFactory(SessionStoreBadger, t.TempDir())
	if err != nil {
		t.Fatalf("badger factory error = %v", err)
	}
	if _, ok := f.CreateStore().(*BadgerSessionStore); !ok {
		t.Error("badger factory returned wrong store")
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if _, err := NewSessionStoreFactory("redis", ""); err == nil {
		t.Error("unknown store type should fail")
	}
}
