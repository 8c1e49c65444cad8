// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package auth

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// SessionStoreType selects the session backend.
type SessionStoreType string

const (
	// SessionStoreMemory uses in-memory storage (default, not persistent).
	SessionStoreMemory SessionStoreType = "memory"

	// SessionStoreBadger uses BadgerDB for persistent session storage.
	SessionStoreBadger SessionStoreType = "badger"
)

// SessionStoreFactory owns the BadgerDB handle, if any, behind a SessionStore.
type SessionStoreFactory struct {
	storeType SessionStoreType
	db        *badger.DB
}

// NewSessionStoreFactory opens the backing database for storeType. path is
// ignored for the memory store.
func NewSessionStoreFactory(storeType SessionStoreType, path string) (*SessionStoreFactory, error) {
	factory := &SessionStoreFactory{storeType: storeType}

	switch storeType {
	case SessionStoreMemory, "":
		factory.storeType = SessionStoreMemory
	case SessionStoreBadger:
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create session store directory: %w", err)
		}
		opts := badger.DefaultOptions(path)
		opts.Logger = nil // Suppress BadgerDB logs

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for sessions: %w", err)
		}
		factory.db = db
	default:
		return nil, fmt.Errorf("unknown session store %q", storeType)
	}

	return factory, nil
}

// CreateStore returns the configured store.
func (f *SessionStoreFactory) CreateStore() SessionStore {
	if f.db != nil {
		return NewBadgerSessionStore(f.db)
	}
	return NewMemorySessionStore()
}

// Type returns the backend in use.
func (f *SessionStoreFactory) Type() SessionStoreType {
	return f.storeType
}

// Close releases the BadgerDB handle.
func (f *SessionStoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
