// Package config resolves bf2asm settings from flags, B2A_ environment
// variables and the settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/lhaig/bf2asm/internal/compiler"
	"github.com/lhaig/bf2asm/internal/logger"
	"github.com/spf13/viper"
	"github.com/xyproto/env/v2"
)

const (
	// Name is the program name; it names the settings and temp directories.
	Name = "bf2asm"

	// EnvPrefix prefixes every environment variable, as in B2A_TMP.
	EnvPrefix = "B2A"

	SettingsFileName = "settings.yaml"
	BackendsFileName = "backends.json"
)

// Cache store kinds.
const (
	StoreJSON = "json"
	StoreBolt = "bolt"
)

// Settings holds every resolved option.
type Settings struct {
	Lang         string
	TempDir      string // used verbatim when set
	BackendsFile string
	CacheStore   string
	ChunkSize    int
	NoCache      bool
	SettingsFile string
	Log          logger.Config
}

// NewSettings returns settings with defaults.
func NewSettings() *Settings {
	return &Settings{
		Lang:         "en",
		BackendsFile: filepath.Join(Dir(), BackendsFileName),
		CacheStore:   StoreJSON,
		ChunkSize:    compiler.DefaultChunkSize,
		SettingsFile: filepath.Join(Dir(), SettingsFileName),
		Log:          logger.NewConfig(),
	}
}

// Options returns the command line options bound to s.
func (s *Settings) Options() []Opt {
	return []Opt{
		NewOpt(&s.Lang, "lang", s.Lang, "message language (en, es, de)"),
		NewOpt(&s.TempDir, "tmp", s.TempDir, "cache directory, used as is (default: system temp dir + /"+Name+")"),
		NewOpt(&s.BackendsFile, "backends", s.BackendsFile, "backend override file (.json, .yaml or .toml)"),
		NewOpt(&s.CacheStore, "cache-store", s.CacheStore, "cache store: json or bolt"),
		NewOpt(&s.ChunkSize, "chunk-size", s.ChunkSize, "characters per cache chunk"),
		NewOpt(&s.NoCache, "no-cache", s.NoCache, "compile without reading or writing the cache"),
		NewOpt(&s.SettingsFile, "settings", s.SettingsFile, "settings file"),
		NewOpt(&s.Log.Level, "log-level", s.Log.Level, "log level: debug, info, warn, error"),
		NewOpt(&s.Log.Format, "log-format", s.Log.Format, "log format: auto, console, logfmt, json"),
	}
}

// NewViper returns a viper instance reading B2A_ environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// This normalizes "-" to an underscore in env names.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return v
}

// Load reads the settings file, if present, and resolves every option into
// s. Flags win over the environment, which wins over the file.
func (s *Settings) Load(v *viper.Viper) error {
	path := v.GetString("settings")
	if path == "" {
		path = s.SettingsFile
	}
	if err := ReadFile(v, path); err != nil {
		return err
	}
	if err := LoadOptions(v, s.Options()); err != nil {
		return err
	}
	return s.Validate()
}

// Validate checks option values that flags alone cannot constrain.
func (s *Settings) Validate() error {
	switch s.CacheStore {
	case StoreJSON, StoreBolt:
	default:
		return fmt.Errorf("unknown cache store %q: expected %s or %s", s.CacheStore, StoreJSON, StoreBolt)
	}
	if s.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", s.ChunkSize)
	}
	return nil
}

// CacheDir returns the directory holding cache files.
func (s *Settings) CacheDir() string {
	return ResolveTempDir(s.TempDir)
}

// ReadFile merges the settings file at path into v. A missing file is not
// an error.
func ReadFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	return nil
}

// SaveLang stores lang in the settings file at path, keeping its other
// entries.
func SaveLang(path, lang string) error {
	v := viper.New()
	if err := ReadFile(v, path); err != nil {
		return err
	}
	v.Set("lang", lang)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", path, err)
	}
	return nil
}

// Dir returns the per-user bf2asm directory, ~/bf2asm.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, Name)
}

// ResolveTempDir returns override unchanged when it is set. Otherwise it
// returns the system temp directory joined with Name: $TEMP (or ".") on
// Windows, /tmp elsewhere.
func ResolveTempDir(override string) string {
	if override != "" {
		return override
	}
	base := "/tmp"
	if runtime.GOOS == "windows" {
		base = env.Str("TEMP", ".")
	}
	return filepath.Join(base, Name)
}
