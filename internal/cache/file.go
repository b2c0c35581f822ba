package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FileExt is appended to the scope file name of JSON caches.
const FileExt = ".b_cache.json"

// FileStore keeps one JSON document per scope in a directory.
type FileStore struct {
	Dir    string
	Logger *zap.Logger
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{Dir: dir, Logger: log}
}

// Path returns the document path for scope.
func (s *FileStore) Path(scope Scope) string {
	return filepath.Join(s.Dir, scope.FileName()+FileExt)
}

// Load reads the document for scope.
func (s *FileStore) Load(scope Scope, fingerprint string) (*Cache, error) {
	path := s.Path(scope)
	log := s.Logger.With(zap.String("path", path))

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("No cache found")
		return New(scope, fingerprint), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn("Discarding unreadable cache", zap.Error(err))
		return New(scope, fingerprint), nil
	}
	if reason := doc.validate(scope, fingerprint); reason != "" {
		log.Warn("Discarding cache", zap.String("reason", reason))
		return New(scope, fingerprint), nil
	}

	c, dropped := doc.cache()
	if dropped > 0 {
		log.Warn("Dropping malformed cache entries", zap.Int("dropped", dropped))
	}
	log.Debug("Loaded cache", zap.Int("entries", c.Len()))
	return c, nil
}

// Save writes c to a temporary file and renames it over the document, so a
// failed save never leaves a truncated cache behind.
func (s *FileStore) Save(c *Cache) (err error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(newDocument(c), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".bf2asm-cache-*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, err = tmp.Write(data)
	if err = multierr.Append(err, tmp.Close()); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.Path(c.Scope)); err != nil {
		return fmt.Errorf("failed to replace cache: %w", err)
	}

	s.Logger.Debug("Saved cache", zap.String("path", s.Path(c.Scope)), zap.Int("entries", c.Len()))
	return nil
}

// Close is a no-op; FileStore holds no open files.
func (s *FileStore) Close() error {
	return nil
}
