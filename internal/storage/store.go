package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// ErrQuotaExceeded is returned by Set when a write would push the store past
// its configured byte quota. The value previously stored under the key is
// left unchanged.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

var keyPattern = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Store is a flat string key-value table with per-key writes. There is no
// transactional guarantee across keys; callers that write related keys must
// tolerate one landing without the other.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string)
}

// FileStore keeps every key as one file under a directory, with the full
// table cached in memory. Writes go through a temp file and rename so an
// interrupted write never leaves a partial value on disk.
type FileStore struct {
	path    string
	quota   int64
	records map[string]string

	mu sync.RWMutex
}

type FileStoreOpt func(*FileStore)

// WithQuota caps the total bytes of stored values. Zero means unlimited.
func WithQuota(bytes int64) FileStoreOpt {
	return func(s *FileStore) {
		s.quota = bytes
	}
}

func NewFileStore(path string, opts ...FileStoreOpt) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		records: map[string]string{},
	}

	for _, opt := range opts {
		opt(s)
	}

	err := s.load()
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = map[string]string{}

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return fmt.Errorf("reading store directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".dat" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.path, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		key := entry.Name()[:len(entry.Name())-len(".dat")]
		s.records[key] = string(data)
	}

	return nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.records[sanitizeKey(key)]
	return val, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = sanitizeKey(key)

	if s.quota > 0 {
		used := int64(0)
		for k, v := range s.records {
			if k == key {
				continue
			}
			used += int64(len(v))
		}
		if used+int64(len(value)) > s.quota {
			return ErrQuotaExceeded
		}
	}

	err := atomicWrite(s.filePath(key), []byte(value), 0644)
	if err != nil {
		return err
	}

	s.records[key] = value
	return nil
}

func (s *FileStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = sanitizeKey(key)
	delete(s.records, key)

	err := os.Remove(s.filePath(key))
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove store file", "key", key, "error", err)
	}
}

func (s *FileStore) filePath(key string) string {
	return filepath.Join(s.path, fmt.Sprintf("%s.dat", key))
}

// sanitizeKey maps a logical key onto a filename-safe form. Keys used by the
// game are already safe; this guards against path separators in foreign keys.
func sanitizeKey(key string) string {
	return keyPattern.ReplaceAllString(key, "_")
}

// atomicWrite writes data to a temp file then renames it to the target path.
// This prevents partial or empty files if the process is interrupted.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("failed to remove temp file after rename failure", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
