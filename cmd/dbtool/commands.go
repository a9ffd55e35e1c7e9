package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fuel-route-service/internal/adapters/cache"
	"fuel-route-service/internal/adapters/repositories"
	"fuel-route-service/internal/config"
	"fuel-route-service/internal/platform/db"
)

const citySource = "csv"

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dbtool",
		Short: "Manage the fuel station catalog database",
		Long: `dbtool initializes the schema and loads the city gazetteer and fuel price catalog.

Examples:
  dbtool init
  dbtool import-cities --csv data/us_cities.csv
  dbtool import-prices --csv data/fuel-prices.csv --clear
  dbtool purge-cache`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newInitCommand())
	root.AddCommand(newImportCitiesCommand())
	root.AddCommand(newImportPricesCommand())
	root.AddCommand(newPurgeCacheCommand())

	return root
}

// withDatabase opens the configured database with the schema in place.
func withDatabase(ctx context.Context, fn func(conn *sql.DB, dialect db.Dialect) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	conn, dialect, err := db.OpenFromConfig(cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	return fn(conn, dialect)
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("Initializing database schema...")
			return withDatabase(cmd.Context(), func(*sql.DB, db.Dialect) error {
				log.Println("Schema ready.")
				return nil
			})
		},
	}
}

func newImportCitiesCommand() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "import-cities",
		Short: "Load the city,state,latitude,longitude gazetteer",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("import cities: %w", err)
			}
			defer f.Close()

			entries, skipped, err := repositories.ReadCityCSV(f)
			if err != nil {
				return fmt.Errorf("import cities: %w", err)
			}

			return withDatabase(cmd.Context(), func(conn *sql.DB, dialect db.Dialect) error {
				n, err := repositories.NewCityRepository(conn, dialect).UpsertCities(cmd.Context(), entries, citySource)
				if err != nil {
					return err
				}
				log.Printf("import cities complete: read=%d upserted=%d skipped=%d", len(entries), n, skipped)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the city gazetteer CSV")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newImportPricesCommand() *cobra.Command {
	var (
		csvPath string
		clear   bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "import-prices",
		Short: "Load the OPIS fuel price CSV into the station catalog",
		Long: `Rows with an unparsable retail price are skipped. Station coordinates are
resolved from the city gazetteer, so run import-cities first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must be zero or positive")
			}

			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("import prices: %w", err)
			}
			defer f.Close()

			stations, skipped, err := repositories.ReadPriceCSV(f, limit)
			if err != nil {
				return fmt.Errorf("import prices: %w", err)
			}

			ctx := cmd.Context()
			return withDatabase(ctx, func(conn *sql.DB, dialect db.Dialect) error {
				gaz, err := repositories.NewCityRepository(conn, dialect).LoadIndex(ctx)
				if err != nil {
					return err
				}
				if gaz.Len() == 0 {
					log.Println("warning: city gazetteer is empty; stations will be stored without coordinates")
				}

				res, err := repositories.ImportPrices(ctx, repositories.NewStationRepository(conn, dialect), gaz, stations, clear)
				if errors.Is(err, repositories.ErrCatalogNotEmpty) {
					return fmt.Errorf("%w; rerun with --clear to replace it", err)
				}
				if err != nil {
					return err
				}

				res.Skipped = skipped
				log.Printf(
					"import prices complete: loaded=%d imported=%d skipped=%d unlocated=%d deleted=%d",
					res.Loaded, res.Imported, res.Skipped, res.Unlocated, res.Deleted,
				)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the fuel price CSV")
	cmd.Flags().BoolVar(&clear, "clear", false, "delete existing stations before importing")
	cmd.Flags().IntVar(&limit, "limit", 0, "import at most N rows (0 = all)")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newPurgeCacheCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-cache",
		Short: "Delete expired rows from the SQL route and geocode caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDatabase(ctx, func(conn *sql.DB, dialect db.Dialect) error {
				n, err := cache.PurgeExpired(ctx, conn, dialect, time.Now())
				if err != nil {
					return err
				}
				log.Printf("purge cache complete: deleted=%d", n)
				return nil
			})
		},
	}
}
