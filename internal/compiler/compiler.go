// Package compiler drives a compilation: it validates the source, generates
// it chunk by chunk through the fragment cache and assembles the program.
package compiler

import (
	"fmt"
	"strings"

	"github.com/lhaig/bf2asm/internal/backend"
	"github.com/lhaig/bf2asm/internal/cache"
	"github.com/lhaig/bf2asm/internal/checker"
	"github.com/lhaig/bf2asm/internal/codegen"
	"go.uber.org/zap"
)

// Compiler turns Brainfuck source into assembly for registered backends.
type Compiler struct {
	Registry  *backend.Registry
	ChunkSize int // characters per cache chunk; DefaultChunkSize if zero
	Logger    *zap.Logger
}

// New returns a compiler using the given registry.
func New(r *backend.Registry, log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{
		Registry:  r,
		ChunkSize: DefaultChunkSize,
		Logger:    log,
	}
}

// Result holds the output of a compilation
type Result struct {
	Assembly string
	Cache    *cache.Cache // the cache passed in, with new fragments added
	Hits     int          // chunks served from the cache
	Misses   int          // chunks generated
}

// Compile runs the full pipeline: lookup -> check -> generate -> assemble.
// fc may be nil, in which case a throwaway cache is used. On failure no
// assembly is returned.
func (c *Compiler) Compile(source string, key backend.Key, fc *cache.Cache) (*Result, error) {
	log := c.logger().With(zap.Stringer("backend", key))

	tmpl, err := c.Registry.Lookup(key.Arch, key.Platform)
	if err != nil {
		return nil, err
	}

	if err := checker.Check(source); err != nil {
		return nil, err
	}

	fingerprint := tmpl.Fingerprint()
	if fc == nil {
		fc = cache.New(cache.Scope{Arch: key.Arch, Platform: key.Platform}, fingerprint)
	} else if fc.Fingerprint != fingerprint {
		log.Debug("Backend templates changed, dropping cached fragments",
			zap.Int("entries", fc.Len()))
		fc.Reset(fingerprint)
	}

	res := &Result{Cache: fc}
	state := codegen.NewState()

	var sb strings.Builder
	sb.WriteString(codegen.Prologue(tmpl))

	for _, chunk := range Chunks(source, c.ChunkSize) {
		text, hit, err := c.emitChunk(chunk, tmpl, fc, state)
		if err != nil {
			return nil, err
		}
		if hit {
			res.Hits++
		} else {
			res.Misses++
		}
		sb.WriteString(text)
	}

	// guaranteed by checker.Check
	if state.Depth() != 0 {
		return nil, fmt.Errorf("internal error: %d loops left open", state.Depth())
	}

	sb.WriteString(codegen.Epilogue(tmpl))
	res.Assembly = sb.String()

	log.Debug("Compiled",
		zap.Int("chunks", res.Hits+res.Misses),
		zap.Int("cache_hits", res.Hits),
		zap.Int("cache_misses", res.Misses),
		zap.Int("labels", state.NextLabel))
	return res, nil
}

// emitChunk returns the code for chunk, from the cache when possible.
func (c *Compiler) emitChunk(chunk string, tmpl *backend.Template, fc *cache.Cache, state *codegen.State) (string, bool, error) {
	if frag, ok := fc.Lookup(chunk); ok {
		text, err := frag.Apply(state)
		if err == nil {
			return text, true, nil
		}
		// Apply leaves state untouched on error, so regenerating is safe.
		c.logger().Warn("Discarding inconsistent cached fragment", zap.Error(err))
	}

	frag, err := codegen.Translate(chunk, tmpl, state.Depth())
	if err != nil {
		return "", false, err
	}
	fc.Put(chunk, frag)

	text, err := frag.Apply(state)
	if err != nil {
		return "", false, err
	}
	return text, false, nil
}

func (c *Compiler) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
