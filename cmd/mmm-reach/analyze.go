package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ThejanDulara/MMM-Reach/internal/portfolio"
	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
	"github.com/ThejanDulara/MMM-Reach/pkg/output"
	"github.com/ThejanDulara/MMM-Reach/pkg/validation"
)

type analyzeOptions struct {
	requestFile string
	format      string
	out         string
	models      map[string]string
	efficiency  map[string]*float64
}

var channelFlags = map[string]string{
	constants.ChannelTV:       "tv",
	constants.ChannelFacebook: "facebook",
	constants.ChannelYouTube:  "youtube",
	constants.ChannelRadio:    "radio",
	constants.ChannelPress:    "press",
}

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := &analyzeOptions{efficiency: make(map[string]*float64)}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute the efficiency point of every channel",
		Long: "Computes the budget and reach at which each channel's marginal reach falls to its target efficiency.\n" +
			"Efficiencies come from the per-channel flags or from a JSON request file shaped like the analyze API body.",
		Example: "  mmm-reach analyze --tv 50 --facebook 40 --youtube 60 --radio 30 --press 20 --model TV=\"TV 3+\"",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request(cmd)
			if err != nil {
				return err
			}

			outputFormat := opts.format
			if outputFormat == "" {
				outputFormat = a.conf.Output.Format
			}
			if err := validation.ValidateOutputFormat(outputFormat); err != nil {
				return err
			}
			if outputFormat == constants.OutputFormatXLSX && opts.out == "" {
				return eris.New("xlsx output requires --out")
			}

			cat, err := a.newCatalog()
			if err != nil {
				return err
			}
			runner, err := a.newRunner(cat)
			if err != nil {
				return err
			}

			res, err := runner.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			st, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close() //nolint:errcheck
				if run, err := st.Record(cmd.Context(), req, res); err != nil {
					a.logger.Warn("failed to record run", zap.String("op", "main.analyze"), zap.Error(err))
				} else {
					a.logger.Debug("run recorded", zap.String("op", "main.analyze"), zap.String("id", run.ID))
				}
			}

			return writeResult(cmd.OutOrStdout(), opts.out, outputFormat, res)
		},
	}

	for _, ch := range constants.Channels() {
		opts.efficiency[ch] = new(float64)
		cmd.Flags().Float64Var(opts.efficiency[ch], channelFlags[ch], 0, "target efficiency for "+ch+" (0-100)")
	}
	cmd.Flags().StringToStringVar(&opts.models, "model", nil, "model override per channel, e.g. --model TV=\"TV 3+\"")
	cmd.Flags().StringVar(&opts.requestFile, "request", "", "JSON request file with efficiencies and models")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format override: pretty, csv, json, xlsx")
	cmd.Flags().StringVar(&opts.out, "out", "", "write output to this file instead of stdout")
	return cmd
}

// request builds the portfolio request from the request file, then applies any
// channel flags that were set explicitly.
func (o *analyzeOptions) request(cmd *cobra.Command) (portfolio.Request, error) {
	req := portfolio.Request{Efficiencies: make(map[string]float64)}

	if o.requestFile != "" {
		data, err := os.ReadFile(o.requestFile)
		if err != nil {
			return req, eris.Wrapf(err, "failed to read request %s", o.requestFile)
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, eris.Wrapf(err, "failed to parse request %s", o.requestFile)
		}
		if req.Efficiencies == nil {
			req.Efficiencies = make(map[string]float64)
		}
	}

	for ch, flag := range channelFlags {
		if cmd.Flags().Changed(flag) {
			req.Efficiencies[ch] = *o.efficiency[ch]
		}
	}

	if len(o.models) > 0 {
		if req.Models == nil {
			req.Models = make(map[string]string, len(o.models))
		}
		for ch, name := range o.models {
			if !constants.IsChannel(ch) {
				return req, eris.Errorf("unknown channel %q in --model", ch)
			}
			req.Models[ch] = name
		}
	}
	return req, nil
}

func writeResult(stdout io.Writer, path, outputFormat string, res *portfolio.Result) error {
	if path == "" {
		return output.Write(stdout, outputFormat, res)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", path)
	}
	if err := output.Write(f, outputFormat, res); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "failed to close %s", path)
}
