package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lhaig/bf2asm/internal/backend"
	"github.com/lhaig/bf2asm/internal/cache"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Request describes one file compilation.
type Request struct {
	Arch       string
	Platform   string
	SourcePath string
	OutputPath string
	Store      cache.Store // nil disables the persistent cache
}

// Report summarizes a successful Build.
type Report struct {
	OutputPath string
	CachePath  string // empty when caching is disabled
	Hits       int
	Misses     int
	Entries    int // fragments in the persistent cache after the build
}

// Build compiles the source file named by req and writes the assembly to
// req.OutputPath. The cache for the source is held under an exclusive lock
// from load to save. Nothing is written when compilation fails.
func (c *Compiler) Build(req Request) (report *Report, err error) {
	key := backend.NewKey(req.Arch, req.Platform)
	log := c.logger().With(zap.String("source", req.SourcePath), zap.Stringer("backend", key))

	source, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	tmpl, err := c.Registry.Lookup(key.Arch, key.Platform)
	if err != nil {
		return nil, err
	}

	report = &Report{OutputPath: req.OutputPath}

	var fc *cache.Cache
	if req.Store != nil {
		scope := cache.NewScope(req.SourcePath, key)
		report.CachePath = req.Store.Path(scope)

		unlock, lockErr := cache.Lock(report.CachePath + ".lock")
		if lockErr != nil {
			return nil, lockErr
		}
		defer func() {
			err = multierr.Append(err, unlock())
		}()

		fc, err = req.Store.Load(scope, tmpl.Fingerprint())
		if err != nil {
			return nil, err
		}
	}

	res, err := c.Compile(string(source), key, fc)
	if err != nil {
		return nil, err
	}

	if err := writeOutput(req.OutputPath, res.Assembly); err != nil {
		return nil, err
	}
	log.Debug("Wrote assembly", zap.String("output", req.OutputPath))

	if req.Store != nil {
		if err := req.Store.Save(res.Cache); err != nil {
			return nil, err
		}
		log.Debug("Updated cache", zap.Int("added", res.Cache.Added()))
		report.Entries = res.Cache.Len()
	}

	report.Hits = res.Hits
	report.Misses = res.Misses
	return report, nil
}

// writeOutput replaces path with text through a temporary file in the same
// directory, so readers never observe a partial program.
func writeOutput(path, text string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bf2asm-out-*")
	if err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, err = tmp.WriteString(text)
	if err = multierr.Append(err, tmp.Close()); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
