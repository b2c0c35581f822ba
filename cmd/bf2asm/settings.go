package main

import (
	"github.com/lhaig/bf2asm/internal/config"
	"github.com/lhaig/bf2asm/internal/messages"
	"github.com/spf13/cobra"
)

func (a *app) newSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change persistent settings",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return errUsage
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "lang <code>",
		Short: "Set the message language",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.setLang(args[0])
		},
	})
	return cmd
}

func (a *app) setLang(code string) error {
	success.Fprintln(a.stdout, a.printer.Render(messages.ChangingLangTo, code))

	if !messages.Supported(code) {
		warning.Fprintln(a.stderr, a.printer.Render(messages.UnsupportedLang, code))
	}

	return config.SaveLang(a.settings.SettingsFile, code)
}
