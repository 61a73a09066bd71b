package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soaringjerry/pulse/internal/export"
	"github.com/soaringjerry/pulse/internal/render"
	"github.com/soaringjerry/pulse/internal/services"
)

const defaultCommandTimeout = 30 * time.Second

func newReportCommand(cfgPath func() string) *cobra.Command {
	var (
		reportType string
		format     string
		noColor    bool
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "report <surveyID>",
		Short: "Print an analytics report for a survey",
		Long: `Print an analytics report for a survey.

Report types: overview, categories, scores, toggle-checkbox, feedback, full.

Examples:
  pulse report S1
  pulse report S1 --type scores --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}
			if _, err := services.ParseReportType(reportType); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := newApp(ctx, cfgPath(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.analytics().Report(ctx, args[0], reportType)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			r := render.New(render.Options{Color: !noColor && !color.NoColor, Policy: a.cfg.Analytics})
			return r.Write(out, report)
		},
	}
	cmd.Flags().StringVarP(&reportType, "type", "t", string(services.ReportOverview), "report type")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultCommandTimeout, "overall deadline")
	return cmd
}

func newExportCommand(cfgPath func() string) *cobra.Command {
	var (
		format  string
		out     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export <surveyID>",
		Short: "Write a CSV or XLSX export of a survey's analytics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := newApp(ctx, cfgPath(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := export.NewService(a.analytics()).Export(ctx, export.Params{SurveyID: args[0], Format: format})
			if err != nil {
				return err
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(res.Data)
				return err
			}
			path := out
			if path == "" {
				path = res.Filename
			} else if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
				path = filepath.Join(path, res.Filename)
			}
			if err := os.WriteFile(path, res.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(res.Data))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatCSV, "csv, feedback-csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory; - writes to stdout")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultCommandTimeout, "overall deadline")
	return cmd
}
