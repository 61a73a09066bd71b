package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newImportCommand(cfgPath func() string) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load surveys and responses from a YAML or JSON fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := newApp(ctx, cfgPath(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.importFile(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d surveys, %d responses (%d ids generated)\n", sum.Surveys, sum.Responses, sum.Generated)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline")
	return cmd
}
