// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package likes batches reader like clicks in memory and writes them to the
// database periodically, so a burst of clicks costs one transaction instead
// of one UPDATE each.
//
// The client already debounces: it sends the clicks accumulated since its
// last request as one increment. The server adds a second stage here.
package likes

import (
	"sync"

	"github.com/tomtom215/folio/internal/metrics"
)

// Accumulator holds increments that have been accepted but not yet stored.
//
// A batch being written stays in inflight until its transaction has either
// committed or failed, so stored plus pending always equals every accepted
// click. commit is held exclusively across the write and the clear; View
// takes its shared side.
type Accumulator struct {
	mu         sync.Mutex
	pending    map[int64]int64
	inflight   map[int64]int64
	maxPending int
	flushCh    chan struct{}

	commit sync.RWMutex
}

// NewAccumulator creates an accumulator that requests an early flush once
// maxPending distinct posts have unflushed clicks.
func NewAccumulator(maxPending int) *Accumulator {
	if maxPending <= 0 {
		maxPending = 500
	}
	return &Accumulator{
		pending:    make(map[int64]int64),
		inflight:   make(map[int64]int64),
		maxPending: maxPending,
		flushCh:    make(chan struct{}, 1),
	}
}

// Add records n clicks for a post and returns the post's pending total.
// Non-positive n is ignored; likes never decrease.
func (a *Accumulator) Add(id, n int64) int64 {
	if n <= 0 {
		return a.Pending(id)
	}

	a.mu.Lock()
	a.pending[id] += n
	total := a.pending[id]
	size := len(a.pending)
	a.mu.Unlock()

	metrics.LikesPending.Set(float64(size))
	if size >= a.maxPending {
		a.requestFlush()
	}
	return total
}

// Pending returns the clicks for one post that are not yet committed,
// including a batch that is being written.
func (a *Accumulator) Pending(id int64) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending[id] + a.inflight[id]
}

// View runs read while no flush is committing. Stored counts read inside
// read plus pending(id) neither lag behind nor double count a flush.
func (a *Accumulator) View(read func(pending func(id int64) int64) error) error {
	a.commit.RLock()
	defer a.commit.RUnlock()
	return read(a.Pending)
}

// Len returns how many posts have uncommitted clicks.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.pending)
	for id := range a.inflight {
		if _, ok := a.pending[id]; !ok {
			n++
		}
	}
	return n
}

// FlushRequested is signalled when the pending map reaches its limit.
func (a *Accumulator) FlushRequested() <-chan struct{} {
	return a.flushCh
}

func (a *Accumulator) requestFlush() {
	select {
	case a.flushCh <- struct{}{}:
	default:
	}
}

// swap moves every pending increment into inflight and returns a copy of
// the batch. Flushes are serialized, so inflight is empty on entry.
func (a *Accumulator) swap() map[int64]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.pending) == 0 {
		return nil
	}
	batch := make(map[int64]int64, len(a.pending))
	for id, n := range a.pending {
		batch[id] = n
	}
	a.inflight = a.pending
	a.pending = make(map[int64]int64, len(batch))
	metrics.LikesPending.Set(0)
	return batch
}

// committed drops the in-flight batch after its transaction committed.
func (a *Accumulator) committed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inflight = make(map[int64]int64)
}

// restore merges the in-flight batch back into pending after a failed write.
func (a *Accumulator) restore() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, n := range a.inflight {
		a.pending[id] += n
	}
	a.inflight = make(map[int64]int64)
	metrics.LikesPending.Set(float64(len(a.pending)))
}
