// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// compressionLevel trades a little CPU for noticeably smaller post bodies.
const compressionLevel = 5

// compressibleTypes are the response types Folio produces.
var compressibleTypes = []string{
	"application/json",
	"application/xml",
	"text/plain",
	"text/csv",
}

// Compression gzips responses whose Content-Type is one of the types Folio
// emits, when the client accepts it.
func Compression() func(http.Handler) http.Handler {
	return chimiddleware.Compress(compressionLevel, compressibleTypes...)
}
