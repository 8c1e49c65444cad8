// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package audit

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// writeTimeout bounds one store write, including the final drain.
const writeTimeout = 5 * time.Second

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether events are recorded at all.
	Enabled bool

	// Retention is how long events are kept by Cleanup.
	Retention time.Duration

	// BufferSize is the capacity of the async write buffer.
	BufferSize int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Retention:  90 * 24 * time.Hour,
		BufferSize: 256,
	}
}

// Logger buffers events and writes them to the store from Serve, so request
// handlers never wait on the database.
type Logger struct {
	config Config
	store  Store
	events chan *Event
	now    func() time.Time
}

// NewLogger creates an audit logger. It records nothing until Serve or Flush
// drains the buffer.
func NewLogger(store Store, config Config) *Logger {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.Retention <= 0 {
		config.Retention = DefaultConfig().Retention
	}
	return &Logger{
		config: config,
		store:  store,
		events: make(chan *Event, config.BufferSize),
		now:    time.Now,
	}
}

// Enabled reports whether events are recorded.
func (l *Logger) Enabled() bool {
	return l.config.Enabled
}

// Log enqueues an event. It fills in ID and timestamp and never blocks: when
// the buffer is full the event is dropped.
func (l *Logger) Log(event *Event) {
	if !l.config.Enabled || event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC().Truncate(time.Microsecond)
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}
	if event.Outcome == "" {
		event.Outcome = OutcomeSuccess
	}

	select {
	case l.events <- event:
	default:
		metrics.AuditEventsDropped.Inc()
		logging.Warn().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("Audit event buffer full, dropping event")
	}
}

// Record logs event with the request's source address, user agent and
// request ID.
func (l *Logger) Record(r *http.Request, event *Event) {
	if !l.config.Enabled || event == nil {
		return
	}
	event.SourceIP = sourceIP(r)
	event.UserAgent = r.UserAgent()
	event.RequestID = logging.RequestIDFromContext(r.Context())
	l.Log(event)
}

// Serve implements suture.Service. It writes events as they arrive and
// drains the buffer before returning.
func (l *Logger) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			l.Flush(drainCtx)
			cancel()
			return ctx.Err()
		case event := <-l.events:
			l.write(ctx, event)
		}
	}
}

// Flush writes every buffered event and returns the number written.
func (l *Logger) Flush(ctx context.Context) int {
	written := 0
	for {
		select {
		case event := <-l.events:
			if l.write(ctx, event) {
				written++
			}
		default:
			return written
		}
	}
}

func (l *Logger) write(ctx context.Context, event *Event) bool {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := l.store.Save(writeCtx, event); err != nil {
		metrics.AuditEventsDropped.Inc()
		logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
		return false
	}
	metrics.AuditEventsWritten.Inc()
	return true
}

// Cleanup deletes events older than the retention period.
func (l *Logger) Cleanup(ctx context.Context) (int, error) {
	n, err := l.store.DeleteBefore(ctx, l.now().Add(-l.config.Retention))
	return int(n), err
}

// Query returns matching events, newest first, and the total match count.
func (l *Logger) Query(ctx context.Context, filter Filter) ([]Event, int64, error) {
	total, err := l.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	events, err := l.store.Query(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// String implements fmt.Stringer for logging.
func (l *Logger) String() string {
	return "audit-logger"
}

// Metadata marshals v for Event.Metadata, returning nil when it cannot.
func Metadata(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func sourceIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
