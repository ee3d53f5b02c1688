// Package infra selects and opens the configured store backend.
package infra

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/infra/bigquery"
	"github.com/dvloznov/finance-dashboard/internal/infra/sqlstore"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/rs/zerolog"
)

// SQLOptions maps the sql config section to connection options.
func SQLOptions(c config.SQLConfig) sqlstore.Options {
	return sqlstore.Options{
		Dialect:  c.Dialect,
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Name:     c.Name,
		Path:     c.Path,
		Debug:    c.Debug,
	}
}

// Open returns the repository selected by storage.driver.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.Repository, error) {
	switch cfg.Storage.Driver {
	case config.DriverBigQuery:
		repo, err := bigquery.New(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset, log)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return repo, nil
	case config.DriverSQL:
		s, err := sqlstore.Open(SQLOptions(cfg.SQL), log)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("Open: unsupported storage driver %q", cfg.Storage.Driver)
}

var (
	_ store.Repository = (*bigquery.Repository)(nil)
	_ store.Repository = (*sqlstore.Store)(nil)
)
