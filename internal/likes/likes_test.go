// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package likes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockStore records flushed batches and can be told to fail.
type mockStore struct {
	mu      sync.Mutex
	stored  map[int64]int64
	batches int
	fail    bool
}

func newMockStore() *mockStore {
	return &mockStore{stored: make(map[int64]int64)}
}

func (m *mockStore) IncrementLikes(ctx context.Context, inc map[int64]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("database unavailable")
	}
	m.batches++
	for id, n := range inc {
		m.stored[id] += n
	}
	return nil
}

func (m *mockStore) get(id int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored[id]
}

func (m *mockStore) setFail(v bool) {
	m.mu.Lock()
	m.fail = v
	m.mu.Unlock()
}

func TestAccumulator_Add(t *testing.T) {
	a := NewAccumulator(10)

	if got := a.Add(1, 3); got != 3 {
		t.Errorf("Add() = %d, want 3", got)
	}
	if got := a.Add(1, 2); got != 5 {
		t.Errorf("Add() = %d, want 5", got)
	}
	if got := a.Add(1, -4); got != 5 {
		t.Errorf("negative Add() = %d, want unchanged 5", got)
	}
	if got := a.Pending(2); got != 0 {
		t.Errorf("Pending(unknown) = %d", got)
	}
}

func TestAccumulator_EarlyFlushSignal(t *testing.T) {
	a := NewAccumulator(2)
	a.Add(1, 1)
	select {
	case <-a.FlushRequested():
		t.Fatal("flush requested below the limit")
	default:
	}

	a.Add(2, 1)
	a.Add(3, 1) // second signal must not block
	select {
	case <-a.FlushRequested():
	default:
		t.Fatal("no flush requested at the limit")
	}
}

func TestAccumulator_ConcurrentAdds(t *testing.T) {
	a := NewAccumulator(1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.Add(7, 1)
			}
		}()
	}
	wg.Wait()
	if got := a.Pending(7); got != 5000 {
		t.Errorf("Pending() = %d, want 5000", got)
	}
}

func TestFlusher_FlushMovesPendingToStore(t *testing.T) {
	a := NewAccumulator(100)
	store := newMockStore()
	f := NewFlusher(a, store, time.Hour)

	a.Add(1, 4)
	a.Add(2, 1)
	if err := f.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if store.get(1) != 4 || store.get(2) != 1 {
		t.Errorf("stored = %v", store.stored)
	}
	if a.Len() != 0 {
		t.Errorf("pending after flush = %d", a.Len())
	}

	// Empty flush does not hit the store.
	if err := f.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.batches != 1 {
		t.Errorf("batches = %d, want 1", store.batches)
	}
}

func TestFlusher_FailureMergesBack(t *testing.T) {
	a := NewAccumulator(100)
	store := newMockStore()
	f := NewFlusher(a, store, time.Hour)

	a.Add(1, 4)
	store.setFail(true)
	if err := f.Flush(context.Background()); err == nil {
		t.Fatal("Flush() should fail")
	}
	a.Add(1, 2)
	if got := a.Pending(1); got != 6 {
		t.Fatalf("Pending() after failed flush = %d, want 6", got)
	}

	store.setFail(false)
	if err := f.Flush(context.Background()); err != nil {
		t.Fatalf("retry Flush() error = %v", err)
	}
	if got := store.get(1); got != 6 {
		t.Errorf("stored = %d, want 6", got)
	}
}

// blockingStore commits a batch and then holds the flush open until release
// is closed.
type blockingStore struct {
	*mockStore
	committed chan struct{}
	release   chan struct{}
}

func (b *blockingStore) IncrementLikes(ctx context.Context, inc map[int64]int64) error {
	if err := b.mockStore.IncrementLikes(ctx, inc); err != nil {
		return err
	}
	close(b.committed)
	<-b.release
	return nil
}

func TestFlusher_InFlightBatchCountedUntilCleared(t *testing.T) {
	a := NewAccumulator(100)
	store := &blockingStore{mockStore: newMockStore(), committed: make(chan struct{}), release: make(chan struct{})}
	f := NewFlusher(a, store, time.Hour)

	a.Add(1, 7)
	done := make(chan error, 1)
	go func() { done <- f.Flush(context.Background()) }()
	<-store.committed

	if got := a.Pending(1); got != 7 {
		t.Errorf("Pending() during flush = %d, want 7", got)
	}
	a.Add(1, 2)

	viewed := make(chan int64, 1)
	go func() {
		_ = a.View(func(pending func(int64) int64) error {
			viewed <- store.get(1) + pending(1)
			return nil
		})
	}()
	select {
	case got := <-viewed:
		t.Fatalf("View() returned %d while the batch was committing", got)
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := <-viewed; got != 9 {
		t.Errorf("stored + pending = %d, want 9", got)
	}
	if got := a.Pending(1); got != 2 {
		t.Errorf("Pending() after flush = %d, want 2", got)
	}
	if got := store.get(1); got != 7 {
		t.Errorf("stored = %d, want 7", got)
	}
}

func TestFlusher_ServeFlushesOnShutdown(t *testing.T) {
	a := NewAccumulator(100)
	store := newMockStore()
	f := NewFlusher(a, store, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Serve(ctx) }()

	a.Add(9, 3)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return")
	}
	if got := store.get(9); got != 3 {
		t.Errorf("stored after shutdown = %d, want 3", got)
	}
}

func TestFlusher_ServeFlushesOnSignal(t *testing.T) {
	a := NewAccumulator(1)
	store := newMockStore()
	f := NewFlusher(a, store, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Serve(ctx) }()

	a.Add(5, 2)

	deadline := time.Now().Add(5 * time.Second)
	for store.get(5) != 2 {
		if time.Now().After(deadline) {
			t.Fatal("early flush did not happen")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFlusher_String(t *testing.T) {
	if got := NewFlusher(NewAccumulator(1), newMockStore(), 0).String(); got != "likes-flusher" {
		t.Errorf("String() = %q", got)
	}
}
