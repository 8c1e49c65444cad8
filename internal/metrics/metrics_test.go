// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// histogramCount extracts the sample count from a Prometheus histogram.
func histogramCount(h prometheus.Histogram) uint64 {
	var m io_prometheus_client.Metric
	if err := h.Write(&m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("UPDATE", "blogs"))

	RecordDBQuery("SELECT", "blogs", 3*time.Millisecond, nil)
	RecordDBQuery("UPDATE", "blogs", 5*time.Millisecond, errors.New("transaction conflict"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("UPDATE", "blogs"))
	if after-before != 1 {
		t.Errorf("expected one recorded error, got %v", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	counter := APIRequestsTotal.WithLabelValues("GET", "/api/v1/blogs", "200")
	before := testutil.ToFloat64(counter)

	RecordAPIRequest("GET", "/api/v1/blogs", "200", 12*time.Millisecond)

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("expected counter to increase by 1, got %v", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("expected %v active, got %v", before+1, got)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("expected %v active, got %v", before, got)
	}
}

func TestRecordLikeFlush(t *testing.T) {
	flushed := testutil.ToFloat64(LikesFlushed)
	failures := testutil.ToFloat64(LikesFlushErrors)

	RecordLikeFlush(7, time.Millisecond, nil)
	RecordLikeFlush(3, time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(LikesFlushed) - flushed; got != 7 {
		t.Errorf("flushed delta = %v, want 7", got)
	}
	if got := testutil.ToFloat64(LikesFlushErrors) - failures; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRecordSubscription(t *testing.T) {
	created := testutil.ToFloat64(Subscriptions.WithLabelValues("created"))
	existing := testutil.ToFloat64(Subscriptions.WithLabelValues("existing"))

	RecordSubscription(true)
	RecordSubscription(false)
	RecordSubscription(false)

	if got := testutil.ToFloat64(Subscriptions.WithLabelValues("created")) - created; got != 1 {
		t.Errorf("created delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(Subscriptions.WithLabelValues("existing")) - existing; got != 2 {
		t.Errorf("existing delta = %v, want 2", got)
	}
}

func TestRecordBackup(t *testing.T) {
	ok := testutil.ToFloat64(Backups.WithLabelValues("success"))
	failed := testutil.ToFloat64(Backups.WithLabelValues("failure"))
	samples := histogramCount(BackupDuration)

	RecordBackup(time.Second, nil)
	RecordBackup(time.Second, errors.New("disk full"))
	RecordBackup(time.Second, nil)

	if got := testutil.ToFloat64(Backups.WithLabelValues("success")) - ok; got != 2 {
		t.Errorf("success delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(Backups.WithLabelValues("failure")) - failed; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
	if got := histogramCount(BackupDuration) - samples; got != 3 {
		t.Errorf("duration samples delta = %d, want 3", got)
	}
}
