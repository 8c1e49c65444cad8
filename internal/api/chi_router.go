// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	auth          *auth.Middleware
	likeLimiter   *auth.RateLimiter
}

// NewRouter creates the router. likeLimiter may be nil, which leaves the
// like endpoint with only its route group limit.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, authMW *auth.Middleware, likeLimiter *auth.RateLimiter) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	authMW.Unauthorized = func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Unauthorized("Authentication required")
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
		auth:          authMW,
		likeLimiter:   likeLimiter,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	mw := router.chiMiddleware

	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Crawler documents
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimitPublicRead())
		r.Get("/sitemap.xml", h.Sitemap)
		r.Get("/robots.txt", h.Robots)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression())

		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)

		// ========================
		// Public reads
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitPublicRead())
			r.Get("/profile", h.GetProfile)
			r.Get("/projects", h.ListPublicProjects)
			r.Get("/blogs", h.ListPublicBlogs)
			r.Get("/blogs/latest", h.LatestBlogs)
			r.Get("/blogs/tags", h.PublicTags)
			r.Get("/blogs/{slug}", h.GetPublicBlog)
		})

		// ========================
		// Public writes
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitPublicWrite())
			r.With(router.likeRateLimit()).Post("/blogs/{id}/likes", h.LikeBlog)
			r.Post("/newsletter/subscribe", h.Subscribe)
			r.Post("/contact", h.SubmitContact)
		})

		// ========================
		// Authentication
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.With(mw.RateLimitLogin()).Post("/auth/login", h.Login)
			r.With(mw.RateLimitPublicWrite()).Post("/auth/logout", h.Logout)
			r.With(mw.RateLimitPublicRead()).Get("/auth/check", h.CheckAuth)
		})

		// ========================
		// Admin console
		// ========================
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RateLimitAdmin())
			r.Use(router.auth.RequireAdmin)
			r.Use(middleware.NoStore)

			r.Get("/profile", h.AdminGetProfile)
			r.Put("/profile", h.UpdateProfile)

			r.Get("/projects", h.ListProjects)
			r.Post("/projects", h.CreateProject)
			r.Get("/projects/{id}", h.GetProject)
			r.Put("/projects/{id}", h.UpdateProject)
			r.Delete("/projects/{id}", h.DeleteProject)

			r.Get("/blogs", h.ListBlogs)
			r.Post("/blogs", h.CreateBlog)
			r.Get("/blogs/{id}", h.GetBlog)
			r.Put("/blogs/{id}", h.UpdateBlog)
			r.Delete("/blogs/{id}", h.DeleteBlog)
			r.Patch("/blogs/{id}/publish", h.PublishBlog)

			r.Get("/subscribers", h.ListSubscribers)
			r.Get("/subscribers/export", h.ExportSubscribers)
			r.Patch("/subscribers/{id}", h.UpdateSubscriber)
			r.Delete("/subscribers/{id}", h.DeleteSubscriber)

			r.Get("/contacts", h.ListContacts)
			r.Get("/contacts/{id}", h.GetContact)
			r.Delete("/contacts/{id}", h.DeleteContact)

			r.Get("/audit", h.ListAuditEvents)

			r.Get("/backups", h.ListBackups)
			r.Post("/backups", h.CreateBackup)
			r.Get("/backups/{name}", h.DownloadBackup)
			r.Delete("/backups/{name}", h.DeleteBackup)
		})
	})

	return r
}

// likeRateLimit applies the per-IP token bucket to like batches.
func (router *Router) likeRateLimit() func(http.Handler) http.Handler {
	if router.likeLimiter == nil || router.chiMiddleware.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return router.likeLimiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
		metrics.APIRateLimitHits.WithLabelValues("likes").Inc()
		NewResponseWriter(w, r).TooManyRequests("Too many likes, slow down", 0)
	})
}
