// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/metrics"
)

// Query limits.
const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 100
)

const eventColumns = `id, timestamp, type, severity, outcome, actor, source_ip, user_agent,
	action, target_type, target_id, description, metadata, request_id`

// DuckDBStore implements Store on the audit_events table. The table is
// created by the database package's migrations.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a DuckDB-backed audit store.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// Save inserts one event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) (err error) {
	defer observe("INSERT", time.Now(), &err)

	metadata := string(event.Metadata)
	if metadata == "" {
		metadata = "{}"
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO audit_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC(), string(event.Type), string(event.Severity), string(event.Outcome),
		event.Actor, event.SourceIP, event.UserAgent, event.Action, event.TargetType, event.TargetID,
		event.Description, metadata, event.RequestID)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// buildWhere renders the filter as a WHERE clause and its arguments.
func buildWhere(filter Filter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Query returns matching events, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter Filter) (events []Event, err error) {
	defer observe("SELECT", time.Now(), &err)

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where, args := buildWhere(filter)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM audit_events`+where+
		` ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events = make([]Event, 0, limit)
	for rows.Next() {
		var (
			e                               Event
			typ, severity, outcome, metaStr string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &typ, &severity, &outcome, &e.Actor, &e.SourceIP,
			&e.UserAgent, &e.Action, &e.TargetType, &e.TargetID, &e.Description, &metaStr, &e.RequestID); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Type = EventType(typ)
		e.Severity = Severity(severity)
		e.Outcome = Outcome(outcome)
		e.Timestamp = e.Timestamp.UTC()
		if metaStr != "" && metaStr != "{}" && json.Valid([]byte(metaStr)) {
			e.Metadata = json.RawMessage(metaStr)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *DuckDBStore) Count(ctx context.Context, filter Filter) (n int64, err error) {
	defer observe("SELECT", time.Now(), &err)

	where, args := buildWhere(filter)
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return n, nil
}

// DeleteBefore removes events older than cutoff.
func (s *DuckDBStore) DeleteBefore(ctx context.Context, cutoff time.Time) (n int64, err error) {
	defer observe("DELETE", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit events: %w", err)
	}
	return res.RowsAffected()
}

func observe(operation string, start time.Time, errp *error) {
	metrics.RecordDBQuery(operation, "audit_events", time.Since(start), *errp)
}
