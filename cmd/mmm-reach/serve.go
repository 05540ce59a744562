package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ThejanDulara/MMM-Reach/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyze API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cat, err := a.newCatalog()
			if err != nil {
				return err
			}
			if !skipVerify {
				if err := cat.Verify(ctx); err != nil {
					return err
				}
				a.logger.Info("model catalog verified",
					zap.String("op", "main.serve"),
					zap.Int("models", cat.Loaded()),
				)
			}

			runner, err := a.newRunner(cat)
			if err != nil {
				return err
			}

			deps := server.Deps{Analyzer: runner, Models: cat}
			st, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close() //nolint:errcheck
				deps.Runs = st
			}

			scfg, err := server.NewConfig(a.conf.Server)
			if err != nil {
				return err
			}

			handler := server.NewHandler(a.logger, deps, scfg, version)
			return server.Serve(ctx, a.logger, scfg, handler)
		},
	}

	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "start without loading every model first")
	return cmd
}
