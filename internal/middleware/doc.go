// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package middleware provides the chi-compatible HTTP middleware shared by every
route: request IDs, Prometheus instrumentation, gzip compression and security
headers.

All middleware has the func(http.Handler) http.Handler shape so it can be
passed to chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Use(middleware.Compression())
	    ...
	})

Request IDs are taken from an incoming X-Request-ID header when it looks
sane, otherwise generated. They are stored in the logging context so
logging.Ctx(r.Context()) tags every line with request_id and correlation_id.

PrometheusMetrics labels requests with the matched chi route pattern
(/api/v1/blogs/{slug}) rather than the raw path, which keeps label
cardinality bounded.
*/
package middleware
