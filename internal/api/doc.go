// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package api serves Folio's HTTP API on a chi router.

# Route Groups

	/api/v1/health/{live,ready}        probes, no rate limit
	/api/v1/{profile,projects,blogs}   public reads, 300/min per IP
	/api/v1/blogs/{id}/likes           public write, 30/min plus a token bucket
	/api/v1/{newsletter,contact}       public writes, 30/min per IP
	/api/v1/auth/login                 5 per 5 minutes per IP
	/api/v1/admin/...                  admin session required, 100/min per IP
	/api/v1/admin/audit                audit trail, offset paged
	/api/v1/admin/backups[/{name}]     database backups (create, list, download, delete)
	/sitemap.xml, /robots.txt          crawler documents
	/metrics                           Prometheus

# Responses

Every JSON endpoint answers with the same envelope:

	{"success": true, "data": ..., "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "meta": {...}}

Admin writes are recorded in the audit trail with the session's e-mail as
actor.

List endpoints add meta.pagination. The public post list is keyset paginated:
next_cursor is an opaque token to pass back as ?cursor=, and it is null on
the last page.

# Request Bodies

Bodies are limited to MaxBodyBytes, must be a single JSON object and may not
carry unknown fields. Models are normalized (trimmed, lower-cased where
relevant) before validation.
*/
package api
