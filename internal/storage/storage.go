// Package storage provides file-based JSON storage under the codecrew data
// directory. Team records, the shared todo list, and tool-log exports all
// persist through it.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound reports a Get on a key with no record behind it.
var ErrNotFound = errors.New("not found")

// Storage provides file-based JSON storage. Keys are path slices relative to
// the base directory; each leaf maps to one ".json" file written atomically.
type Storage struct {
	basePath string
	mu       sync.Mutex
	locks    map[string]*fileLock
}

// New creates a new Storage instance rooted at basePath.
func New(basePath string) *Storage {
	return &Storage{
		basePath: basePath,
		locks:    make(map[string]*fileLock),
	}
}

// Dir returns the directory a key path maps into, without creating it.
func (s *Storage) Dir(path ...string) string {
	return s.dirPath(path)
}

// recordPath maps a key path to its on-disk JSON file.
func (s *Storage) recordPath(path []string) string {
	return filepath.Join(append([]string{s.basePath}, path...)...) + ".json"
}

// dirPath maps a key path to the directory it denotes.
func (s *Storage) dirPath(path []string) string {
	return filepath.Join(append([]string{s.basePath}, path...)...)
}

// Get retrieves a value from storage.
func (s *Storage) Get(ctx context.Context, path []string, v any) error {
	data, err := os.ReadFile(s.recordPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}

// Put stores a value in storage with file locking. The write goes to a temp
// file first and is renamed into place, so readers never observe a partial
// record.
func (s *Storage) Put(ctx context.Context, path []string, v any) error {
	target := s.recordPath(path)

	// The lock file lives next to the record, so the directory must exist
	// before the lock can be taken.
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	release, err := s.lockFile(target)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer release()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Delete removes a value from storage. Deleting a missing key is not an
// error.
func (s *Storage) Delete(ctx context.Context, path []string) error {
	target := s.recordPath(path)

	release, err := s.lockFile(target)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer release()

	err = os.Remove(target)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List returns the keys stored directly under a path. Subdirectories list
// by name; records list with their ".json" suffix stripped.
func (s *Storage) List(ctx context.Context, path []string) ([]string, error) {
	entries, err := os.ReadDir(s.dirPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var items []string
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			items = append(items, name)
		case strings.HasSuffix(name, ".json"):
			items = append(items, strings.TrimSuffix(name, ".json"))
		}
	}
	return items, nil
}

// Scan iterates over all records at a path, handing each raw record to fn.
// Unreadable files are skipped; an error from fn stops the scan.
func (s *Storage) Scan(ctx context.Context, path []string, fn func(key string, data json.RawMessage) error) error {
	dir := s.dirPath(path)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if err := fn(strings.TrimSuffix(name, ".json"), json.RawMessage(data)); err != nil {
			return err
		}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Storage) Exists(ctx context.Context, path []string) bool {
	_, err := os.Stat(s.recordPath(path))
	return err == nil
}

// lockFile takes the cross-process write lock for one storage file and
// returns its release function. Locks are interned per path so concurrent
// writers in this process contend on the same mutex.
func (s *Storage) lockFile(filePath string) (func(), error) {
	s.mu.Lock()
	lock, ok := s.locks[filePath]
	if !ok {
		lock = newFileLock(filePath)
		s.locks[filePath] = lock
	}
	s.mu.Unlock()

	return lock.acquire()
}
