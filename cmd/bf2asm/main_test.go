package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/lhaig/bf2asm/internal/backend"
	"github.com/lhaig/bf2asm/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	dir      string
	settings string
	tmp      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	color.NoColor = true
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("B2A_TMP", "")
	return &harness{
		dir:      dir,
		settings: filepath.Join(dir, "settings.yaml"),
		tmp:      filepath.Join(dir, "cache"),
	}
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes the command line with fresh state, as a new process would.
func (h *harness) run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	args = append([]string{"--settings", h.settings, "--tmp", h.tmp}, args...)
	code = a.run(args)
	return code, out.String(), errOut.String()
}

func TestCompile(t *testing.T) {
	h := newHarness(t)
	src := h.write(t, "hello.b", "+[-]# done\n.")
	out := filepath.Join(h.dir, "hello.asm")
	cachePath := cache.NewFileStore(h.tmp, nil).Path(cache.NewScope(src, backend.NewKey("x86_64", "linux")))

	code, stdout, stderr := h.run("x86_64", "linux", src, out)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "generated "+out+" (cache: "+cachePath+")\n", stdout)
	assert.FileExists(t, cachePath)

	asm, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(asm), "_start")
	assert.Contains(t, string(asm), "loop_start_0:\n")
	assert.Contains(t, string(asm), "    ; done\n")

	code, stdout, stderr = h.run("--log-level", "debug", "--log-format", "json", "amd64", "linux", src, out)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "(cache: "+cachePath+")")
	assert.Contains(t, stderr, `"hits":1`)
	assert.Contains(t, stderr, `"misses":0`)
}

func TestCompile_BoltStore(t *testing.T) {
	h := newHarness(t)
	src := h.write(t, "hello.b", "++[>+<-]")
	out := filepath.Join(h.dir, "hello.asm")
	db := filepath.Join(h.tmp, cache.BoltFileName)

	for _, want := range []string{`"misses":1`, `"hits":1`} {
		code, stdout, stderr := h.run("--cache-store", "bolt", "--log-level", "debug", "--log-format", "json",
			"x86_64", "linux", src, out)
		require.Equal(t, 0, code, stderr)
		assert.Equal(t, "generated "+out+" (cache: "+db+")\n", stdout)
		assert.Contains(t, stderr, want)
	}
	assert.FileExists(t, db)
}

func TestCompile_NoCache(t *testing.T) {
	h := newHarness(t)
	src := h.write(t, "hello.b", "+.")
	out := filepath.Join(h.dir, "hello.asm")

	code, stdout, stderr := h.run("--no-cache", "arm64", "linux", src, out)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "generated "+out+" (cache: disabled)\n", stdout)
	assert.NoDirExists(t, h.tmp)
}

func TestCompile_Usage(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{{}, {"x86_64", "linux"}, {"settings"}} {
		code, _, stderr := h.run(args...)
		assert.Equal(t, 1, code)
		assert.Equal(t, "usage: bf2asm <arch> <os> <input.b> <output.asm> or bf2asm settings lang <code>\n", stderr)
	}
}

func TestCompile_BackendNotImplemented(t *testing.T) {
	h := newHarness(t)
	src := h.write(t, "hello.b", "+")
	out := filepath.Join(h.dir, "hello.asm")

	code, _, stderr := h.run("sparc", "plan9", src, out)
	assert.Equal(t, 1, code)
	assert.Equal(t, "error["+src+"]: backend for sparc/plan9 is not implemented\n", stderr)
	assert.NoFileExists(t, out)
}

func TestCompile_SyntaxError(t *testing.T) {
	h := newHarness(t)
	src := h.write(t, "broken.b", "+\n +]")
	out := filepath.Join(h.dir, "broken.asm")

	code, _, stderr := h.run("x86_64", "linux", src, out)
	assert.Equal(t, 1, code)
	assert.Equal(t, "error["+src+":2:3]: syntax error: unmatched ']' at line 2, column 3\n", stderr)
	assert.NoFileExists(t, out)
}

func TestSettingsLang(t *testing.T) {
	h := newHarness(t)

	code, stdout, stderr := h.run("settings", "lang", "es")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "changing language to es\n", stdout)
	assert.FileExists(t, h.settings)

	src := h.write(t, "hello.b", "[")
	code, _, stderr = h.run("x86_64", "linux", src, filepath.Join(h.dir, "hello.asm"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error de sintaxis")

	// flags win over the settings file
	code, _, stderr = h.run("--lang", "de", "x86_64", "linux", src, filepath.Join(h.dir, "hello.asm"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Syntaxfehler")
}

func TestSettingsLang_Unsupported(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("settings", "lang", "ja")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "no translations for ja")
}

func TestBackends(t *testing.T) {
	h := newHarness(t)

	code, stdout, stderr := h.run("backends")
	require.Equal(t, 0, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Contains(t, lines, "x86_64/linux")
	assert.Contains(t, lines, "arm64/linux")
}

func TestBackends_Override(t *testing.T) {
	h := newHarness(t)
	defs := h.write(t, "backends.yaml", `
z80_cpm:
  ptr_init: ld hl, tape
  inc_ptr: inc hl
  dec_ptr: dec hl
  inc_val: inc (hl)
  dec_val: dec (hl)
  output: call putc
  input: call getc
  exit: ret
  header: org 100h
  loop_test: ld a, (hl)
  branch_zero: jp z, {label}
  branch_nonzero: jp nz, {label}
`)

	code, stdout, stderr := h.run("--backends", defs, "backends")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, strings.Split(strings.TrimSpace(stdout), "\n"), "z80/cpm")

	src := h.write(t, "hello.b", "+[-]")
	out := filepath.Join(h.dir, "hello.z80")
	code, _, stderr = h.run("--backends", defs, "z80", "cpm", src, out)
	require.Equal(t, 0, code, stderr)

	asm, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(asm), "org 100h\n    ld hl, tape\n"), string(asm))
	assert.Contains(t, string(asm), "    jp z, loop_end_0\n")
}

func TestBackends_BadOverride(t *testing.T) {
	h := newHarness(t)
	defs := h.write(t, "backends.json", `{"z80_cpm": {"inc_val": "inc (hl)"}}`)

	code, _, stderr := h.run("--backends", defs, "backends")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `backend z80/cpm is missing required template`)
}
