package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lhaig/bf2asm/internal/cache"
	"github.com/lhaig/bf2asm/internal/diagnostic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeSource(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, "prog.b")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func openStores(t *testing.T) map[string]cache.Store {
	t.Helper()
	log := zaptest.NewLogger(t)

	return map[string]cache.Store{
		"file": cache.NewFileStore(t.TempDir(), log),
		"bolt": cache.NewBoltStore(filepath.Join(t.TempDir(), cache.BoltFileName), log),
	}
}

func TestBuild(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			req := Request{
				Arch:       "x86_64",
				Platform:   "linux",
				SourcePath: writeSource(t, dir, helloLoops),
				OutputPath: filepath.Join(dir, "out", "prog.asm"),
				Store:      store,
			}
			c := newCompiler(t, 8)

			cold, err := c.Build(req)
			require.NoError(t, err)
			assert.Positive(t, cold.Misses)
			assert.Equal(t, store.Path(cache.NewScope(req.SourcePath, linux64)), cold.CachePath)
			assert.FileExists(t, cold.CachePath)
			assert.NoFileExists(t, cold.CachePath+".tmp")

			out, err := os.ReadFile(req.OutputPath)
			require.NoError(t, err)
			assert.Equal(t, whole(t, helloLoops, linux64), string(out))

			warm, err := c.Build(req)
			require.NoError(t, err)
			assert.Zero(t, warm.Misses)
			assert.Equal(t, cold.Hits+cold.Misses, warm.Hits)
			assert.Equal(t, cold.Entries, warm.Entries)

			again, err := os.ReadFile(req.OutputPath)
			require.NoError(t, err)
			assert.Equal(t, string(out), string(again))
		})
	}
}

func TestBuild_NoCache(t *testing.T) {
	dir := t.TempDir()
	req := Request{
		Arch:       "amd64",
		Platform:   "Linux",
		SourcePath: writeSource(t, dir, "+[-]."),
		OutputPath: filepath.Join(dir, "prog.asm"),
	}

	report, err := newCompiler(t, DefaultChunkSize).Build(req)
	require.NoError(t, err)
	assert.Empty(t, report.CachePath)
	assert.Zero(t, report.Entries)

	out, err := os.ReadFile(req.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, whole(t, "+[-].", linux64), string(out))
}

func TestBuild_SyntaxErrorWritesNothing(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			output := filepath.Join(dir, "prog.asm")
			require.NoError(t, os.WriteFile(output, []byte("previous"), 0644))

			req := Request{
				Arch:       "x86_64",
				Platform:   "linux",
				SourcePath: writeSource(t, dir, "+[[-]"),
				OutputPath: output,
				Store:      store,
			}
			report, err := newCompiler(t, DefaultChunkSize).Build(req)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.True(t, diagnostic.IsKind(err, diagnostic.SyntaxError))

			out, err := os.ReadFile(output)
			require.NoError(t, err)
			assert.Equal(t, "previous", string(out))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 2, "only the source and the old output")
		})
	}
}

func TestBuild_BackendNotFound(t *testing.T) {
	dir := t.TempDir()
	req := Request{
		Arch:       "sparc",
		Platform:   "plan9",
		SourcePath: writeSource(t, dir, "+"),
		OutputPath: filepath.Join(dir, "prog.asm"),
		Store:      cache.NewFileStore(filepath.Join(dir, "cache"), nil),
	}

	_, err := newCompiler(t, DefaultChunkSize).Build(req)
	require.Error(t, err)
	assert.True(t, diagnostic.IsKind(err, diagnostic.ConfigurationError))
	assert.NoFileExists(t, req.OutputPath)
	assert.NoDirExists(t, filepath.Join(dir, "cache"))
}

func TestBuild_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := newCompiler(t, DefaultChunkSize).Build(Request{
		Arch:       "x86_64",
		Platform:   "linux",
		SourcePath: filepath.Join(dir, "missing.b"),
		OutputPath: filepath.Join(dir, "prog.asm"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
