package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"moralsim/adapters/sqlstore"
	"moralsim/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	var (
		driver string
		dsn    string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the session report schema",
		Long: `Apply the report schema to Postgres or SQLite. Without flags the
STORE, DATABASE_URL and SQLITE_PATH settings are used.

Example: migrate --driver sqlite --dsn moralsim.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver == "" || dsn == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				switch cfg.Store.Kind {
				case config.StorePostgres:
					driver, dsn = sqlstore.DriverPostgres, cfg.Store.DatabaseURL
				case config.StoreSQLite:
					driver, dsn = sqlstore.DriverSQLite, cfg.Store.SQLitePath
				default:
					return fmt.Errorf("store %q has no SQL schema; pass --driver and --dsn", cfg.Store.Kind)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := sqlstore.Open(ctx, driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema ready on %s\n", driver)
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "postgres or sqlite")
	cmd.Flags().StringVar(&dsn, "dsn", "", "connection string or SQLite file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
