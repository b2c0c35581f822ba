package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

// logLevel adapts a zapcore.Level to pflag.Value. Only the levels the
// compiler logs at are accepted.
type logLevel zapcore.Level

func (l *logLevel) String() string { return zapcore.Level(*l).String() }

func (l *logLevel) Type() string { return "level" }

func (l *logLevel) Set(s string) error {
	level, err := parseLevel(s)
	if err != nil {
		return err
	}
	*l = logLevel(level)
	return nil
}

func parseLevel(s string) (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(s))
	if err != nil || level < zapcore.DebugLevel || level > zapcore.ErrorLevel {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q: expected debug, info, warn or error", s)
	}
	return level, nil
}

// LevelVar registers a log level flag on fs that writes into p, starting
// from value.
func LevelVar(fs *pflag.FlagSet, p *zapcore.Level, name string, value zapcore.Level, usage string) {
	*p = value
	fs.Var((*logLevel)(p), name, usage)
}
