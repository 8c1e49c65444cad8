// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package cache holds rendered results of the public read endpoints that every
visitor hits: the profile, the project list, the latest posts, the tag cloud
and the sitemap.

Entries expire after a fixed TTL. Admin writes drop the affected keys
explicitly, so a published change is visible immediately rather than after
the TTL.

# Usage

	c := cache.New(5 * time.Minute)
	projects, err := cache.GetOrLoad(ctx, c, cache.KeyProjects, func(ctx context.Context) ([]models.Project, error) {
	    return db.ListProjects(ctx, true)
	})

	// after an admin write
	c.Delete(cache.KeyProjects)

Expired entries are removed lazily on Get and periodically by Serve, which
runs as a suture service.

# Metrics

Hits, misses and evictions are exported as folio_cache_hits_total,
folio_cache_misses_total and folio_cache_evictions_total.
*/
package cache
