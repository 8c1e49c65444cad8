// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	// Authentication events
	EventTypeAuthSuccess EventType = "auth.success"
	EventTypeAuthFailure EventType = "auth.failure"
	EventTypeAuthLockout EventType = "auth.lockout"
	EventTypeLogout      EventType = "auth.logout"

	// Content events (profile, projects, posts)
	EventTypeContentCreated   EventType = "content.created"
	EventTypeContentUpdated   EventType = "content.updated"
	EventTypeContentDeleted   EventType = "content.deleted"
	EventTypeContentPublished EventType = "content.published"

	// Audience events (subscribers, contact submissions)
	EventTypeAudienceUpdated EventType = "audience.updated"
	EventTypeAudienceDeleted EventType = "audience.deleted"

	// Data events
	EventTypeDataExport EventType = "data.export"
	EventTypeDataBackup EventType = "data.backup"
)

// knownTypes backs Valid.
var knownTypes = map[EventType]struct{}{
	EventTypeAuthSuccess:      {},
	EventTypeAuthFailure:      {},
	EventTypeAuthLockout:      {},
	EventTypeLogout:           {},
	EventTypeContentCreated:   {},
	EventTypeContentUpdated:   {},
	EventTypeContentDeleted:   {},
	EventTypeContentPublished: {},
	EventTypeAudienceUpdated:  {},
	EventTypeAudienceDeleted:  {},
	EventTypeDataExport:       {},
	EventTypeDataBackup:       {},
}

// Valid reports whether t is one of the defined event types.
func (t EventType) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Valid reports whether o is a defined outcome.
func (o Outcome) Valid() bool {
	return o == OutcomeSuccess || o == OutcomeFailure
}

// Event is one audit record.
type Event struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        EventType       `json:"type"`
	Severity    Severity        `json:"severity"`
	Outcome     Outcome         `json:"outcome"`
	Actor       string          `json:"actor"`
	SourceIP    string          `json:"source_ip"`
	UserAgent   string          `json:"user_agent,omitempty"`
	Action      string          `json:"action"`
	TargetType  string          `json:"target_type,omitempty"`
	TargetID    string          `json:"target_id,omitempty"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
}

// Filter narrows a query. Zero fields match everything.
type Filter struct {
	Type    EventType
	Outcome Outcome
	Since   time.Time
	Limit   int
	Offset  int
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter Filter) ([]Event, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
