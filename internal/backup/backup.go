// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package backup writes periodic gzip-compressed snapshots of the room
// store and prunes old ones. Backups use Badger's native stream format,
// so a snapshot taken on a live server restores cleanly.
package backup

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/store"
)

const (
	filePrefix = "emshift-"
	fileSuffix = ".badger.gz"
)

// Config holds backup configuration.
type Config struct {
	// Enabled turns periodic backups on.
	Enabled bool `koanf:"enabled"`

	// Dir is where snapshot files are written.
	Dir string `koanf:"dir"`

	// Interval between snapshots.
	Interval time.Duration `koanf:"interval"`

	// Keep is how many snapshots to retain. Older files are deleted.
	Keep int `koanf:"keep"`
}

// Manager runs the backup schedule. It implements suture's Service.
type Manager struct {
	cfg   Config
	store *store.Store
	now   func() time.Time
}

// NewManager builds a backup manager over an open store.
func NewManager(cfg Config, st *store.Store) *Manager {
	return &Manager{cfg: cfg, store: st, now: time.Now}
}

func (m *Manager) String() string { return "backup-manager" }

// Serve takes a snapshot per interval until the context is cancelled.
// Individual snapshot failures are logged and do not stop the schedule.
func (m *Manager) Serve(ctx context.Context) error {
	if err := os.MkdirAll(m.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("creating backup dir: %w", err)
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			path, err := m.BackupNow()
			if err != nil {
				logging.Error().Err(err).Msg("Backup failed")
				continue
			}
			logging.Info().Str("path", path).Msg("Backup written")
			if err := m.prune(); err != nil {
				logging.Error().Err(err).Msg("Backup pruning failed")
			}
		}
	}
}

// BackupNow writes a single snapshot and returns its path. The file is
// written under a temporary name and renamed, so a crash mid-write never
// leaves a half-written snapshot behind.
func (m *Manager) BackupNow() (string, error) {
	name := filePrefix + m.now().UTC().Format("20060102-150405") + fileSuffix
	path := filepath.Join(m.cfg.Dir, name)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating snapshot file: %w", err)
	}

	gz := gzip.NewWriter(f)
	if err := m.store.Backup(gz); err != nil {
		gz.Close()
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := gz.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("closing snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("closing snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalizing snapshot: %w", err)
	}
	return path, nil
}

// Restore loads a snapshot file into the store, overwriting any keys the
// snapshot carries.
func (m *Manager) Restore(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	defer gz.Close()

	return m.store.Restore(gz)
}

// Snapshots lists snapshot files in the backup dir, newest first.
func (m *Manager) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing backup dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) && strings.HasSuffix(e.Name(), fileSuffix) {
			names = append(names, e.Name())
		}
	}
	// Timestamps in the names make lexicographic order chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (m *Manager) prune() error {
	names, err := m.Snapshots()
	if err != nil {
		return err
	}
	if m.cfg.Keep <= 0 || len(names) <= m.cfg.Keep {
		return nil
	}
	for _, name := range names[m.cfg.Keep:] {
		if err := os.Remove(filepath.Join(m.cfg.Dir, name)); err != nil {
			return fmt.Errorf("removing old snapshot %s: %w", name, err)
		}
	}
	return nil
}
