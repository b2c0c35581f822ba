package cache

import (
	"github.com/lhaig/bf2asm/internal/codegen"
)

// Store loads and saves caches. Load is called once before a compilation
// and Save once after it; neither is called while code is being generated.
type Store interface {
	// Path returns the file that holds the cache for scope.
	Path(scope Scope) string
	// Load returns the cache for scope. A missing, unreadable-as-cache or
	// stale cache is returned as an empty one rather than as an error.
	Load(scope Scope, fingerprint string) (*Cache, error)
	// Save replaces the stored cache for c.Scope with c.
	Save(c *Cache) error
	Close() error
}

// documentVersion 2 marks label definitions in fragment parts.
const documentVersion = 2

// document is the persisted form of a cache.
type document struct {
	Version     int                          `json:"version"`
	Scope       Scope                        `json:"scope"`
	Fingerprint string                       `json:"fingerprint"`
	Entries     map[string]*codegen.Fragment `json:"entries,omitempty"`
}

// validate returns why doc cannot be used for scope and fingerprint, or ""
// if it can.
func (doc *document) validate(scope Scope, fingerprint string) string {
	switch {
	case doc.Version != documentVersion:
		return "unsupported cache version"
	case doc.Scope != scope:
		return "cache belongs to another scope"
	case doc.Fingerprint != fingerprint:
		return "backend templates changed"
	}
	return ""
}

// cache returns the usable entries of doc and the number of entries
// dropped because they are not fragments Translate could have produced.
func (doc *document) cache() (*Cache, int) {
	c := New(doc.Scope, doc.Fingerprint)
	dropped := 0
	for chunk, f := range doc.Entries {
		if chunk == "" || f == nil || f.Validate() != nil {
			dropped++
			continue
		}
		c.Entries[chunk] = f
	}
	return c, dropped
}

func newDocument(c *Cache) *document {
	return &document{
		Version:     documentVersion,
		Scope:       c.Scope,
		Fingerprint: c.Fingerprint,
		Entries:     c.Entries,
	}
}
