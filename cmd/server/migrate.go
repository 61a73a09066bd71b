package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/pulse/internal/config"
	dbstore "github.com/soaringjerry/pulse/internal/db"
)

func newMigrateCommand(cfgPath func() string) *cobra.Command {
	var sqlitePath, dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath())
			if err != nil {
				return err
			}
			if sqlitePath == "" {
				if cfg.Store.Backend != config.BackendSQLite {
					return fmt.Errorf("migrate needs the sqlite backend or --sqlite-path (backend is %q)", cfg.Store.Backend)
				}
				sqlitePath = cfg.Store.SQLitePath
			}
			if dir == "" {
				dir = cfg.Store.MigrationsDir
			}

			sqlDB, err := dbstore.Open(sqlitePath)
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			applied, err := dbstore.RunMigrations(cmd.Context(), sqlDB, dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintf(out, "%s is up to date\n", sqlitePath)
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "database file (overrides store.sqlite_path)")
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (defaults to the embedded set)")
	return cmd
}
