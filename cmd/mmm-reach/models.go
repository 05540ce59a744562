package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
	"github.com/ThejanDulara/MMM-Reach/pkg/format"
)

func newModelsCmd(a *app) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the curve models selectable per channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.newCatalog()
			if err != nil {
				return err
			}
			entries := cat.Entries()
			w := cmd.OutOrStdout()

			switch outputFormat {
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(entries); err != nil {
					return eris.Wrap(err, "models: encode yaml")
				}
				return eris.Wrap(enc.Close(), "models: encode yaml")
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return eris.Wrap(enc.Encode(entries), "models: encode json")
			case "table", "":
			default:
				return eris.Errorf("models: unsupported format %q (table, yaml, json)", outputFormat)
			}

			grouped := cat.ChannelModels()
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Channel\tModel\tMin Spend\tMax Spend\tSigma\tAliases")
			for _, ch := range constants.Channels() {
				for _, e := range grouped[ch] {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g\t%s\n",
						ch, e.Name,
						format.Currency(e.Domain.MinSpend), format.Currency(e.Domain.MaxSpend),
						e.Sigma, strings.Join(e.Aliases, ", "))
				}
			}
			a.logger.Debug("listed models", zap.String("op", "main.models"), zap.Int("models", len(entries)))
			return eris.Wrap(tw.Flush(), "models: flush table")
		},
	}

	cmd.Flags().StringVar(&outputFormat, "format", "table", "output format: table, yaml, json")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Load every configured model and report failures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.newCatalog()
			if err != nil {
				return err
			}
			if err := cat.Verify(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d models verified\n", cat.Loaded())
			return nil
		},
	}
}
