package backend

import (
	"sort"
	"strings"

	"github.com/lhaig/bf2asm/internal/diagnostic"
	"github.com/lhaig/bf2asm/internal/messages"
)

// Registry maps (architecture, platform) pairs to instruction templates.
// It is populated once at startup and only read afterwards.
type Registry struct {
	backends map[Key]*Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[Key]*Template),
	}
}

// Default returns a registry holding the built-in backends.
func Default() *Registry {
	r := NewRegistry()
	r.RegisterDefaults()
	return r
}

// RegisterDefaults registers every built-in backend.
func (r *Registry) RegisterDefaults() {
	for key, t := range builtins {
		r.Register(key, t)
	}
}

// Register adds or replaces the backend for key. Empty optional templates
// are filled with the architecture's fallbacks.
func (r *Registry) Register(key Key, t Template) {
	key = NewKey(key.Arch, key.Platform)
	full := t.withFallbacks(key.Arch)
	r.backends[key] = &full
}

// MergeExternal overlays externally supplied definitions, keyed by
// "arch_platform" or "arch/platform". A definition replaces any backend
// already registered under the same key. Nothing is merged if any
// definition is invalid.
func (r *Registry) MergeExternal(defs map[string]map[string]string) error {
	// sorted so that the reported error does not depend on map order
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	parsed := make(map[Key]*Template, len(defs))
	for _, name := range names {
		key, ok := ParseKey(name)
		if !ok {
			return diagnostic.Configf(messages.BackendBadKey, name)
		}
		t, err := FromMap(key, defs[name])
		if err != nil {
			return err
		}
		parsed[key] = t
	}
	for key, t := range parsed {
		r.backends[key] = t
	}
	return nil
}

// Lookup returns the templates for the given pair.
func (r *Registry) Lookup(arch, platform string) (*Template, error) {
	key := NewKey(arch, platform)
	t, ok := r.backends[key]
	if !ok {
		return nil, diagnostic.Configf(messages.BackendNotImplemented, arch, platform)
	}
	return t, nil
}

// Keys returns every registered key in sorted order.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.backends))
	for key := range r.backends {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Arch != keys[j].Arch {
			return keys[i].Arch < keys[j].Arch
		}
		return keys[i].Platform < keys[j].Platform
	})
	return keys
}

// ParseKey parses "arch_platform" or "arch/platform". The underscore form is
// split at the last underscore so that "x86_64_linux" names x86_64/linux.
func ParseKey(s string) (Key, bool) {
	sep := strings.LastIndex(s, "/")
	if sep < 0 {
		sep = strings.LastIndex(s, "_")
	}
	if sep <= 0 || sep == len(s)-1 {
		return Key{}, false
	}
	return NewKey(s[:sep], s[sep+1:]), true
}
