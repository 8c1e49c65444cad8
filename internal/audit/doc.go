// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package audit records admin activity: sign-ins, failed attempts, lockouts
and every change made through the admin console.

Events are buffered in memory and written to the DuckDB audit_events table
by Logger.Serve, which runs under the supervisor's background layer:

	store := audit.NewDuckDBStore(db.Conn())
	logger := audit.NewLogger(store, audit.DefaultConfig())
	tree.AddBackgroundService(logger)

	logger.Record(r, &audit.Event{
	    Type:       audit.EventTypeContentPublished,
	    Actor:      session.Email,
	    Action:     "publish",
	    TargetType: "blog",
	    TargetID:   "42",
	})

Log never blocks. When the buffer is full the event is dropped and counted
in folio_audit_events_dropped_total. On shutdown Serve drains whatever is
still buffered.

Cleanup removes events older than the configured retention and is run by a
periodic supervisor service.
*/
package audit
