package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/lhaig/bf2asm/internal/backend"
	"github.com/lhaig/bf2asm/internal/cache"
	"github.com/lhaig/bf2asm/internal/compiler"
	"github.com/lhaig/bf2asm/internal/config"
	"github.com/lhaig/bf2asm/internal/diagnostic"
	"github.com/lhaig/bf2asm/internal/messages"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// errUsage reports a command line with the wrong shape.
var errUsage = errors.New("usage")

var (
	success = color.New(color.FgGreen)
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed)
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	os.Exit(a.run(os.Args[1:]))
}

type app struct {
	settings *config.Settings
	viper    *viper.Viper
	stdout   io.Writer
	stderr   io.Writer

	log     *zap.Logger
	printer *messages.Printer
	source  string // input file of the current compilation
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		settings: config.NewSettings(),
		viper:    config.NewViper(),
		stdout:   stdout,
		stderr:   stderr,
		log:      zap.NewNop(),
		printer:  messages.English,
	}
}

// run executes the command line and returns the process exit code.
func (a *app) run(args []string) int {
	cmd := a.newRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		a.report(err)
		return 1
	}
	return 0
}

func (a *app) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "bf2asm <arch> <os> <input.b> <output.asm>",
		Short:             "Compile Brainfuck to assembly",
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.compile,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	config.BindOptions(a.viper, cmd.PersistentFlags(), a.settings.Options())

	cmd.AddCommand(
		a.newSettingsCommand(),
		a.newBackendsCommand(),
	)
	return cmd
}

// setup resolves settings once flags are parsed.
func (a *app) setup(*cobra.Command, []string) error {
	if err := a.settings.Load(a.viper); err != nil {
		return err
	}
	log, err := a.settings.Log.New(a.stderr)
	if err != nil {
		return err
	}
	a.log = log
	a.printer = messages.NewPrinter(a.settings.Lang)
	return nil
}

func (a *app) compile(_ *cobra.Command, args []string) (err error) {
	if len(args) != 4 {
		return errUsage
	}
	a.source = args[2]

	reg, err := a.registry()
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			err = multierr.Append(err, store.Close())
		}()
	}

	c := compiler.New(reg, a.log)
	c.ChunkSize = a.settings.ChunkSize

	report, err := c.Build(compiler.Request{
		Arch:       args[0],
		Platform:   args[1],
		SourcePath: args[2],
		OutputPath: args[3],
		Store:      store,
	})
	if err != nil {
		return err
	}

	a.log.Debug("Cache usage",
		zap.String("cache", report.CachePath),
		zap.Int("hits", report.Hits),
		zap.Int("misses", report.Misses),
		zap.Int("entries", report.Entries))

	cachePath := report.CachePath
	if cachePath == "" {
		cachePath = a.printer.Render(messages.CacheDisabled)
	}
	success.Fprintln(a.stdout, a.printer.Render(messages.GeneratedAsm, report.OutputPath, cachePath))
	return nil
}

// registry returns the built-in backends merged with the override file.
func (a *app) registry() (*backend.Registry, error) {
	defs, err := backend.LoadDefinitions(a.settings.BackendsFile)
	if err != nil {
		return nil, err
	}
	reg := backend.Default()
	if err := reg.MergeExternal(defs); err != nil {
		return nil, err
	}
	if len(defs) > 0 {
		a.log.Debug("Loaded backend overrides",
			zap.String("path", a.settings.BackendsFile),
			zap.Int("backends", len(defs)))
	}
	return reg, nil
}

// openStore returns the configured cache store, or nil when caching is off.
func (a *app) openStore() (cache.Store, error) {
	if a.settings.NoCache {
		return nil, nil
	}
	dir := a.settings.CacheDir()
	switch a.settings.CacheStore {
	case config.StoreBolt:
		return cache.NewBoltStore(filepath.Join(dir, cache.BoltFileName), a.log), nil
	default:
		return cache.NewFileStore(dir, a.log), nil
	}
}

func (a *app) report(err error) {
	p := a.printer

	if errors.Is(err, errUsage) {
		warning.Fprintf(a.stderr, "%s: bf2asm <arch> <os> <input.b> <output.asm> %s bf2asm settings lang <code>\n",
			p.Render(messages.Usage), p.Render(messages.OrKeyword))
		return
	}

	if d, ok := diagnostic.As(err); ok {
		if a.source != "" {
			failure.Fprintln(a.stderr, d.Format(a.source, p))
		} else {
			failure.Fprintln(a.stderr, "error: "+d.Message(p))
		}
		return
	}

	failure.Fprintf(a.stderr, "error: %v\n", err)
}
