package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lhaig/bf2asm/internal/codegen"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// BoltFileName is the database file name used inside the cache directory.
const BoltFileName = "bf2asm.db"

var (
	metaKey       = []byte("meta")
	entriesBucket = []byte("entries")
)

// BoltStore keeps every scope in one bbolt database, one bucket per scope.
// The database is opened for each Load and Save and closed again, so bbolt's
// own file lock is only held while the caller holds the cache Lock.
type BoltStore struct {
	path   string
	Logger *zap.Logger
}

// NewBoltStore returns a store for the database at path. The file is
// created on first use.
func NewBoltStore(path string, log *zap.Logger) *BoltStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &BoltStore{path: path, Logger: log}
}

// open opens or creates the database. A file bbolt cannot read is treated
// like a corrupt cache and replaced by an empty database.
func (s *BoltStore) open() (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := openBolt(s.path)
	if errors.Is(err, bolt.ErrInvalid) || errors.Is(err, bolt.ErrVersionMismatch) || errors.Is(err, bolt.ErrChecksum) {
		s.Logger.Warn("Replacing unreadable cache database", zap.String("path", s.path), zap.Error(err))
		if rmErr := os.Remove(s.path); rmErr != nil {
			return nil, fmt.Errorf("failed to remove cache database: %w", rmErr)
		}
		db, err = openBolt(s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	return db, nil
}

func openBolt(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
}

// Path returns the database path; every scope shares it.
func (s *BoltStore) Path(Scope) string {
	return s.path
}

// Load reads the bucket for scope.
func (s *BoltStore) Load(scope Scope, fingerprint string) (_ *Cache, err error) {
	log := s.Logger.With(zap.String("scope", scope.String()))

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	var doc document
	var decodeErr error
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(scope.String()))
		if b == nil {
			return nil
		}
		if decodeErr = json.Unmarshal(b.Get(metaKey), &doc); decodeErr != nil {
			return nil
		}
		doc.Entries = make(map[string]*codegen.Fragment)
		entries := b.Bucket(entriesBucket)
		if entries == nil {
			return nil
		}
		return entries.ForEach(func(k, v []byte) error {
			var f codegen.Fragment
			if decodeErr = json.Unmarshal(v, &f); decodeErr != nil {
				return decodeErr
			}
			doc.Entries[string(k)] = &f
			return nil
		})
	})
	if decodeErr != nil {
		log.Warn("Discarding unreadable cache", zap.Error(decodeErr))
		return New(scope, fingerprint), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	if doc.Version == 0 {
		log.Debug("No cache found")
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

// Save replaces the bucket for c.Scope in a single transaction.
func (s *BoltStore) Save(c *Cache) (err error) {
	name := []byte(c.Scope.String())
	doc := newDocument(c)
	meta, err := json.Marshal(&document{
		Version:     doc.Version,
		Scope:       doc.Scope,
		Fingerprint: doc.Fingerprint,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	err = db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(name)
		if err != nil {
			return err
		}
		if err := b.Put(metaKey, meta); err != nil {
			return err
		}
		entries, err := b.CreateBucket(entriesBucket)
		if err != nil {
			return err
		}
		for chunk, f := range doc.Entries {
			if len(chunk) > bolt.MaxKeySize {
				s.Logger.Debug("Skipping oversized cache entry", zap.Int("size", len(chunk)))
				continue
			}
			v, err := json.Marshal(f)
			if err != nil {
				return err
			}
			if err := entries.Put([]byte(chunk), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	s.Logger.Debug("Saved cache", zap.String("scope", c.Scope.String()), zap.Int("entries", c.Len()))
	return nil
}

// Close is a no-op; the database is closed after every Load and Save.
func (s *BoltStore) Close() error {
	return nil
}
