// Package cache persists generated code fragments between compilations.
//
// A cache belongs to one scope: a source file compiled for one backend.
// Entries map the literal text of a source chunk to the label-relative
// fragment generated for it, so a cached chunk can be replayed at any point
// of a later compilation, loops included.
package cache

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/lhaig/bf2asm/internal/backend"
	"github.com/lhaig/bf2asm/internal/codegen"
)

// Scope identifies the (source, architecture, platform) triple a cache is
// valid for.
type Scope struct {
	Source   string `json:"source"`
	Arch     string `json:"arch"`
	Platform string `json:"platform"`
}

// NewScope returns the scope for compiling the source file at path with the
// backend identified by key. Relative paths are made absolute so the same
// file always maps to the same scope.
func NewScope(path string, key backend.Key) Scope {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return Scope{Source: path, Arch: key.Arch, Platform: key.Platform}
}

// String returns the scope as "source|arch|platform"
func (s Scope) String() string {
	return strings.Join([]string{s.Source, s.Arch, s.Platform}, "|")
}

// FileName returns a file name stem unique to the scope, e.g.
// "hello.b-1f2e3d4c-linux_x86_64".
func (s Scope) FileName() string {
	return fmt.Sprintf("%s-%08x-%s_%s", filepath.Base(s.Source),
		uint32(xxhash.Sum64String(s.Source)), s.Platform, s.Arch)
}

// Cache maps chunk text to generated fragments for one scope.
type Cache struct {
	Scope       Scope
	Fingerprint string // backend template fingerprint the entries were generated with
	Entries     map[string]*codegen.Fragment

	added int
}

// New returns an empty cache.
func New(scope Scope, fingerprint string) *Cache {
	return &Cache{
		Scope:       scope,
		Fingerprint: fingerprint,
		Entries:     make(map[string]*codegen.Fragment),
	}
}

// Lookup returns the fragment stored for chunk.
func (c *Cache) Lookup(chunk string) (*codegen.Fragment, bool) {
	f, ok := c.Entries[chunk]
	return f, ok
}

// Put stores the fragment generated for chunk.
func (c *Cache) Put(chunk string, f *codegen.Fragment) {
	if _, ok := c.Entries[chunk]; !ok {
		c.added++
	}
	c.Entries[chunk] = f
}

// Reset drops every entry and rebinds the cache to another fingerprint.
func (c *Cache) Reset(fingerprint string) {
	c.Fingerprint = fingerprint
	c.Entries = make(map[string]*codegen.Fragment)
	c.added = 0
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.Entries)
}

// Added returns the number of entries stored since the cache was loaded.
func (c *Cache) Added() int {
	return c.added
}
