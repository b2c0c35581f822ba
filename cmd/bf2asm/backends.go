package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available backends",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			for _, key := range reg.Keys() {
				fmt.Fprintln(a.stdout, key)
			}
			return nil
		},
	}
}
