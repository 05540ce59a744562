package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/ThejanDulara/MMM-Reach/internal/catalog"
	"github.com/ThejanDulara/MMM-Reach/internal/history"
	"github.com/ThejanDulara/MMM-Reach/internal/portfolio"
)

func (a *app) newCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.New(a.logger, a.conf.Catalog)
	if err != nil {
		return nil, eris.Wrap(err, "failed to build model catalog")
	}
	return cat, nil
}

func (a *app) newRunner(cat portfolio.Catalog) (*portfolio.Runner, error) {
	return portfolio.NewRunner(a.logger, cat, portfolio.Options{
		Parallel:     a.conf.Portfolio.Parallel,
		SamplePoints: a.conf.Portfolio.SamplePoints,
	})
}

// openHistory returns nil when run history is disabled.
func (a *app) openHistory(ctx context.Context) (*history.SQLiteStore, error) {
	if !a.conf.History.Enabled {
		return nil, nil
	}
	st, err := history.NewSQLite(a.conf.History.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
