package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
	"github.com/ThejanDulara/MMM-Reach/pkg/format"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recently computed portfolios",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			if st == nil {
				return eris.New("run history is disabled; set history.enabled in the configuration")
			}
			defer st.Close() //nolint:errcheck

			runs, err := st.List(ctx, limit)
			if err != nil {
				return eris.Wrap(err, "runs list")
			}
			if len(runs) == 0 {
				fmt.Fprintln(os.Stderr, "No runs found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tCHANNELS\tTOTAL BUDGET\tTOTAL REACH")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\n",
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					len(r.Result.Results),
					format.Currency(r.TotalBudget),
					r.TotalReach,
				)
			}
			return eris.Wrap(tw.Flush(), "runs: flush table")
		},
	}

	cmd.Flags().IntVar(&limit, "limit", constants.DefaultRunsLimit, "maximum number of runs to list")
	return cmd
}
