// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package main is the entry point for the Folio server.

Folio serves a personal portfolio and blog: a public JSON API for the
profile, projects and posts, an admin console API for managing them, a
newsletter sign-up, a contact form and batched post likes.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("folio")
	├── DataSupervisor ("data-layer")
	│   ├── Like flusher (batches likes into DuckDB)
	│   ├── DuckDB checkpoints
	│   └── Scheduled backups (when BACKUP_INTERVAL > 0)
	├── BackgroundSupervisor ("background-layer")
	│   ├── Read cache sweeper
	│   ├── Like rate limiter sweeper
	│   ├── Session cleanup
	│   ├── Login lockout cleanup
	│   ├── Audit logger (buffered writes to DuckDB)
	│   └── Audit retention cleanup
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB with schema migrations
 4. Audit trail and backups: buffered DuckDB audit log, EXPORT DATABASE archives
 5. Authentication: single admin, JWT cookie sessions (memory or BadgerDB store)
 6. Turnstile: bot verification with a circuit breaker
 7. Likes: in-memory accumulator and periodic flusher
 8. HTTP Server: Chi router with middleware stack

# Configuration

Priority: Environment variables > Config file > Defaults

	# Server
	HTTP_PORT=3857
	ENVIRONMENT=production       # enables Secure cookies
	LOG_LEVEL=info
	LOG_FORMAT=json

	# Admin
	ADMIN_EMAIL=me@example.com
	ADMIN_PASSWORD=<password>
	JWT_SECRET=<32+ chars>
	SESSION_STORE=badger
	SESSION_STORE_PATH=/data/sessions

	# Public site
	SITE_BASE_URL=https://example.com
	CORS_ORIGINS=https://example.com
	TURNSTILE_SECRET_KEY=<secret>  # empty disables verification

	# Storage
	DUCKDB_PATH=/data/folio.duckdb
	BACKUP_DIR=/data/backups
	BACKUP_INTERVAL=24h          # 0 disables scheduled backups
	BACKUP_RETAIN=7
	AUDIT_RETENTION=2160h

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests, the like flusher and audit logger write what they buffered, then
the session store and database are closed.
*/
package main
