package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileBackend persists entries as a JSON document so a session survives
// process restarts, the way a browser keeps its cookie jar.
type FileBackend struct {
	mu   sync.Mutex
	path string
	now  Clock
}

// NewFileBackend creates a backend writing to path. The file is created on
// the first write.
func NewFileBackend(path string, clock Clock) *FileBackend {
	if clock == nil {
		clock = time.Now
	}
	return &FileBackend{
		path: path,
		now:  clock,
	}
}

// Path returns the backing file location
func (b *FileBackend) Path() string {
	return b.path
}

// Get returns the live entry for key
func (b *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if err != nil {
		return "", false, err
	}
	e, ok := entries[key]
	if !ok || e.expired(b.now()) {
		return "", false, nil
	}
	return e.Value, true, nil
}

// Set stores value under key and drops expired entries
func (b *FileBackend) Set(_ context.Context, key, value string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if err != nil {
		return err
	}
	entries[key] = entry{Value: value, ExpiresAt: expiresAt}
	return b.save(entries)
}

// Delete removes keys; missing keys and a missing file are ignored
func (b *FileBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if err != nil {
		return err
	}
	changed := false
	for _, key := range keys {
		if _, ok := entries[key]; ok {
			delete(entries, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return b.save(entries)
}

func (b *FileBackend) load() (map[string]entry, error) {
	entries := make(map[string]entry)
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	return entries, nil
}

func (b *FileBackend) save(entries map[string]entry) error {
	now := b.now()
	for key, e := range entries {
		if e.expired(now) {
			delete(entries, key)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	// a unique temp file per write, since other processes may share path
	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
