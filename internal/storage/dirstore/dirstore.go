// Package dirstore provides primitives for directory-based file stores.
// Each entity gets its own subdirectory holding a meta.json plus optional
// companion files (JSONL logs, rendered output).
package dirstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store manages a base directory of per-entity subdirectories.
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// New creates a Store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Lock acquires an exclusive lock.
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases an exclusive lock.
func (s *Store) Unlock() { s.mu.Unlock() }

// RLock acquires a shared read lock.
func (s *Store) RLock() { s.mu.RLock() }

// RUnlock releases a shared read lock.
func (s *Store) RUnlock() { s.mu.RUnlock() }

// Dir returns the directory path for a given entity ID.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// FilePath returns the path to a named file within an entity's directory.
func (s *Store) FilePath(id, name string) string {
	return filepath.Join(s.baseDir, id, name)
}

// EnsureDir creates the entity directory (and parents) if it doesn't exist.
func (s *Store) EnsureDir(id string) error {
	if err := os.MkdirAll(s.Dir(id), 0o755); err != nil {
		return fmt.Errorf("create entity dir: %w", err)
	}
	return nil
}

// Exists reports whether an entity directory with a meta.json exists.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.FilePath(id, "meta.json"))
	return err == nil
}

// ListDirs returns the names of all subdirectories in baseDir.
func (s *Store) ListDirs() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list base dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// WriteMeta atomically writes meta.json using a temp file + rename.
func (s *Store) WriteMeta(id string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	return s.WriteFileAtomic(id, "meta.json", data)
}

// ReadMeta reads and unmarshals meta.json into out.
func (s *Store) ReadMeta(id string, out any) error {
	data, err := os.ReadFile(s.FilePath(id, "meta.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("entity not found: %s", id)
		}
		return fmt.Errorf("read meta: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal meta: %w", err)
	}
	return nil
}

// AppendJSONL appends one JSON-encoded line to a file within an entity's directory.
func (s *Store) AppendJSONL(id, filename string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filename, err)
	}

	f, err := os.OpenFile(s.FilePath(id, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// LoadJSONL reads all JSON lines from a file, deserializing each into type T.
// Corrupted lines are skipped.
func LoadJSONL[T any](s *Store, id, filename string) ([]T, error) {
	f, err := os.Open(s.FilePath(id, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	var items []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", filename, err)
	}
	return items, nil
}

// WriteFileAtomic atomically writes content to a named file using tmp + rename.
func (s *Store) WriteFileAtomic(id, filename string, content []byte) error {
	path := s.FilePath(id, filename)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write %s tmp: %w", filename, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filename, err)
	}
	return nil
}

// ReadFileContent reads the content of a named file. Returns nil, nil if the
// file doesn't exist.
func (s *Store) ReadFileContent(id, filename string) ([]byte, error) {
	data, err := os.ReadFile(s.FilePath(id, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return data, nil
}
