// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// Archive naming: folio-backup-20260102T030405Z-1a2b3c4d.tar.gz
const (
	filePrefix    = "folio-backup-"
	fileSuffix    = ".tar.gz"
	timeLayout    = "20060102T150405Z"
	stagingPrefix = ".staging-"
)

var namePattern = regexp.MustCompile(`^folio-backup-(\d{8}T\d{6}Z)-([0-9a-f]{8})\.tar\.gz$`)

// ErrNotFound is returned for unknown or malformed backup names.
var ErrNotFound = errors.New("backup not found")

// Exporter is the database surface a backup needs. Satisfied by *database.DB.
type Exporter interface {
	Export(ctx context.Context, dir string) error
	TableCounts(ctx context.Context) (map[string]int64, error)
}

// Backup describes one archive on disk. Checksum and Tables are only known
// for a backup created by this process.
type Backup struct {
	Name      string           `json:"name"`
	Size      int64            `json:"size"`
	CreatedAt time.Time        `json:"created_at"`
	Checksum  string           `json:"checksum,omitempty"`
	Tables    map[string]int64 `json:"tables,omitempty"`
}

// Manager creates, lists and prunes backup archives in one directory.
type Manager struct {
	db     Exporter
	dir    string
	retain int

	mu  sync.Mutex // one backup at a time
	now func() time.Time
}

// NewManager creates dir if needed and removes staging directories left by
// an interrupted run.
func NewManager(db Exporter, dir string, retain int) (*Manager, error) {
	if db == nil {
		return nil, errors.New("backup: exporter is required")
	}
	if retain <= 0 {
		retain = 1
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	m := &Manager{db: db, dir: dir, retain: retain, now: time.Now}
	m.removeStaging()
	return m, nil
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create exports the database and archives it. Older archives beyond the
// retention count are removed afterwards.
func (m *Manager) Create(ctx context.Context) (b *Backup, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	defer func() { metrics.RecordBackup(time.Since(start), err) }()

	created := m.now().UTC().Truncate(time.Second)
	name := filePrefix + created.Format(timeLayout) + "-" + shortID() + fileSuffix

	staging, err := os.MkdirTemp(m.dir, stagingPrefix)
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			logging.Warn().Err(rmErr).Str("dir", staging).Msg("Failed to remove backup staging directory")
		}
	}()

	counts, err := m.db.TableCounts(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to count rows for backup metadata")
		counts = nil
	}

	exportDir := filepath.Join(staging, "export")
	if err := m.db.Export(ctx, exportDir); err != nil {
		return nil, err
	}

	staged := filepath.Join(staging, name)
	checksum, err := writeArchive(exportDir, staged)
	if err != nil {
		return nil, err
	}

	final := filepath.Join(m.dir, name)
	if err := os.Rename(staged, final); err != nil {
		return nil, fmt.Errorf("move backup into place: %w", err)
	}
	info, err := os.Stat(final)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	b = &Backup{
		Name:      name,
		Size:      info.Size(),
		CreatedAt: created,
		Checksum:  checksum,
		Tables:    counts,
	}

	removed, pruneErr := m.prune()
	if pruneErr != nil {
		logging.Warn().Err(pruneErr).Msg("Failed to prune old backups")
	}

	logging.Info().
		Str("name", name).
		Int64("size", b.Size).
		Int("pruned", removed).
		Dur("duration", time.Since(start)).
		Msg("Database backup created")
	return b, nil
}

// List returns the archives in the directory, newest first.
func (m *Manager) List() ([]Backup, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	backups := make([]Backup, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		created, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		backups = append(backups, Backup{Name: entry.Name(), Size: info.Size(), CreatedAt: created})
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// Open returns the archive for reading. The caller closes it.
func (m *Manager) Open(name string) (*os.File, error) {
	if _, ok := parseName(name); !ok {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(m.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes one archive.
func (m *Manager) Delete(name string) error {
	if _, ok := parseName(name); !ok {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(m.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// RunScheduled creates a backup. It has the task shape PeriodicService
// expects.
func (m *Manager) RunScheduled(ctx context.Context) (int, error) {
	if _, err := m.Create(ctx); err != nil {
		return 0, err
	}
	return 1, nil
}

// prune removes archives beyond the retention count.
func (m *Manager) prune() (int, error) {
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for i := m.retain; i < len(backups); i++ {
		if err := os.Remove(filepath.Join(m.dir, backups[i].Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (m *Manager) removeStaging() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), stagingPrefix) {
			_ = os.RemoveAll(filepath.Join(m.dir, entry.Name()))
		}
	}
}

// parseName validates an archive name and returns its creation time.
func parseName(name string) (time.Time, bool) {
	match := namePattern.FindStringSubmatch(name)
	if match == nil {
		return time.Time{}, false
	}
	created, err := time.Parse(timeLayout, match[1])
	if err != nil {
		return time.Time{}, false
	}
	return created, true
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
