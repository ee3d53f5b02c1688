package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/infra"
	"github.com/dvloznov/finance-dashboard/internal/infra/bigquery"
	"github.com/dvloznov/finance-dashboard/internal/infra/sqlstore"
	"github.com/dvloznov/finance-dashboard/internal/logger"
	"github.com/rs/zerolog"
)

// overrides are command-line values that replace configured ones when set.
type overrides struct {
	driver  string
	project string
	dataset string
	dialect string
	path    string
}

func (o overrides) apply(cfg config.Config) (config.Config, error) {
	if o.driver != "" {
		cfg.Storage.Driver = o.driver
	}
	if o.project != "" {
		cfg.BigQuery.Project = o.project
	}
	if o.dataset != "" {
		cfg.BigQuery.Dataset = o.dataset
	}
	if o.dialect != "" {
		cfg.SQL.Dialect = o.dialect
	}
	if o.path != "" {
		cfg.SQL.Path = o.path
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func main() {
	var o overrides
	flag.StringVar(&o.driver, "driver", "", "Storage driver: sql or bigquery (overrides storage.driver)")
	flag.StringVar(&o.project, "project", "", "GCP project ID (overrides bigquery.project)")
	flag.StringVar(&o.dataset, "dataset", "", "BigQuery dataset ID (overrides bigquery.dataset)")
	flag.StringVar(&o.dialect, "dialect", "", "SQL dialect: postgres, mysql or sqlite3 (overrides sql.dialect)")
	flag.StringVar(&o.path, "path", "", "SQLite database file (overrides sql.path)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg, err = o.apply(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	created, err := run(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Migration failed")
	}

	if len(created) == 0 {
		log.Info().Str("driver", cfg.Storage.Driver).Msg("Schema is up to date")
		return
	}
	log.Info().Str("driver", cfg.Storage.Driver).Strs("tables", created).Msg("Migration completed")
}

// run brings the configured store's schema up to date and returns the
// tables it created. The sql driver migrates every table on each run.
func run(ctx context.Context, cfg config.Config, log zerolog.Logger) ([]string, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQL:
		s, err := sqlstore.Open(infra.SQLOptions(cfg.SQL), log)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		if err := s.AutoMigrate(); err != nil {
			return nil, err
		}
		return nil, nil
	case config.DriverBigQuery:
		repo, err := bigquery.New(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset, log)
		if err != nil {
			return nil, err
		}
		defer repo.Close()
		return repo.EnsureTables(ctx)
	}
	return nil, fmt.Errorf("run: unsupported storage driver %q", cfg.Storage.Driver)
}
