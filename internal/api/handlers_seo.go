// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/logging"
)

// Sitemap serves sitemap.xml for the static pages and every published post.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	body, err := cache.GetOrLoad(r.Context(), h.cache, cache.KeySitemap,
		func(ctx context.Context) ([]byte, error) {
			entries, err := h.db.SitemapEntries(ctx)
			if err != nil {
				return nil, err
			}
			return h.seo.Sitemap(entries, h.now())
		})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to render sitemap")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Robots serves robots.txt.
func (h *Handler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.seo.Robots()))
}
