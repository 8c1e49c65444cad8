// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"errors"
	"time"

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

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by area:
//   - handlers_helpers.go: request decoding, path/query parsing, error mapping
//   - handlers_health.go: liveness and readiness
//   - handlers_content.go: profile and projects
//   - handlers_blogs.go: admin post management
//   - handlers_public_blogs.go: public post reads and likes
//   - handlers_audience.go: newsletter subscribers and contact messages
//   - handlers_auth.go: admin login, logout and session check
//   - handlers_seo.go: sitemap.xml and robots.txt
//   - handlers_audit.go: audit trail reads and the recordAudit helper
//   - handlers_backup.go: database backup management
type Handler struct {
	db        *database.DB
	audit     *audit.Logger
	backups   *backup.Manager
	cache     *cache.Cache
	likes     *likes.Accumulator
	captcha   captcha.Verifier
	seo       *seo.Renderer
	auth      *auth.Middleware
	config    *config.Config
	startTime time.Time
	now       func() time.Time
}

// HandlerDeps lists what NewHandler wires together.
type HandlerDeps struct {
	DB      *database.DB
	Audit   *audit.Logger
	Backups *backup.Manager
	Cache   *cache.Cache
	Likes   *likes.Accumulator
	Captcha captcha.Verifier
	SEO     *seo.Renderer
	Auth    *auth.Middleware
	Config  *config.Config
}

// NewHandler creates the API handler. Every dependency is required.
func NewHandler(deps HandlerDeps) (*Handler, error) {
	switch {
	case deps.DB == nil:
		return nil, errors.New("api: database is required")
	case deps.Audit == nil:
		return nil, errors.New("api: audit logger is required")
	case deps.Backups == nil:
		return nil, errors.New("api: backup manager is required")
	case deps.Cache == nil:
		return nil, errors.New("api: cache is required")
	case deps.Likes == nil:
		return nil, errors.New("api: like accumulator is required")
	case deps.Captcha == nil:
		return nil, errors.New("api: captcha verifier is required")
	case deps.SEO == nil:
		return nil, errors.New("api: seo renderer is required")
	case deps.Auth == nil:
		return nil, errors.New("api: auth middleware is required")
	case deps.Config == nil:
		return nil, errors.New("api: config is required")
	}

	return &Handler{
		db:        deps.DB,
		audit:     deps.Audit,
		backups:   deps.Backups,
		cache:     deps.Cache,
		likes:     deps.Likes,
		captcha:   deps.Captcha,
		seo:       deps.SEO,
		auth:      deps.Auth,
		config:    deps.Config,
		startTime: time.Now(),
		now:       time.Now,
	}, nil
}

// maxLikeIncrement is the largest batch one like request may carry.
func (h *Handler) maxLikeIncrement() int {
	if h.config.Likes.MaxIncrement > 0 {
		return h.config.Likes.MaxIncrement
	}
	return 50
}
