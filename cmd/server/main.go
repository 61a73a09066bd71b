// Command pulse serves and prints survey response analytics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.commit=... -X main.buildTime=...".
var (
	commit    = ""
	buildTime = ""
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "pulse",
		Short: "Pulse survey response analytics",
		Long: `Pulse turns collected employee survey responses into analytics reports.

Commands:
  serve     HTTP API with analytics, exports and metrics
  report    print one report for a survey
  export    write a CSV or XLSX export for a survey
  import    load a YAML/JSON fixture into the configured store
  migrate   apply SQLite schema migrations`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config.yaml in ., ./config or /etc/pulse)")

	cfgPath := func() string { return configPath }
	root.AddCommand(
		newServeCommand(cfgPath),
		newReportCommand(cfgPath),
		newExportCommand(cfgPath),
		newImportCommand(cfgPath),
		newMigrateCommand(cfgPath),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			b := buildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "pulse (commit: %s, built: %s)\n", orUnknown(b.Commit), orUnknown(b.BuildTime))
		},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
