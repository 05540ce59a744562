// Package portfolio runs the efficiency solver once per advertising channel and
// sums the per-channel budgets and reach into a portfolio total.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ThejanDulara/MMM-Reach/internal/catalog"
	"github.com/ThejanDulara/MMM-Reach/internal/curve"
	"github.com/ThejanDulara/MMM-Reach/internal/efficiency"
	"github.com/ThejanDulara/MMM-Reach/internal/model"
	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
	"github.com/ThejanDulara/MMM-Reach/pkg/mathutil"
	"github.com/ThejanDulara/MMM-Reach/pkg/validation"
)

// Catalog is the model lookup the runner depends on.
type Catalog interface {
	Has(name string) bool
	Resolve(name string) (model.Regressor, error)
	Domain(name string) (catalog.Domain, error)
	Sigma(name string) (float64, error)
}

// Request carries the per-channel target efficiencies and optional model overrides.
// Decoding from JSON accepts numbers or numeric strings, see UnmarshalJSON.
type Request struct {
	Efficiencies map[string]float64 `json:"efficiencies"`
	Models       map[string]string  `json:"models,omitempty"`

	// malformed holds efficiency values that were not numbers, keyed by channel.
	malformed map[string]string
}

// ChannelResult is the knee point found for one channel.
type ChannelResult struct {
	Channel          string  `json:"channel"`
	SelectedModel    string  `json:"selected_model"`
	TargetEfficiency float64 `json:"target_efficiency"`
	Budget           float64 `json:"budget"`
	Reach            float64 `json:"reach"`
	BudgetShare      float64 `json:"budget_share"`
}

// Result is the portfolio of channel results and their totals.
type Result struct {
	Results     []ChannelResult `json:"results"`
	TotalBudget float64         `json:"total_budget"`
	TotalReach  float64         `json:"total_reach"`
}

// Options tunes evaluation.
type Options struct {
	// Parallel evaluates channels concurrently. Output order is unaffected.
	Parallel bool
	// SamplePoints overrides constants.SamplePoints when positive.
	SamplePoints int
}

// Runner evaluates portfolio requests against a catalog.
type Runner struct {
	logger  *zap.Logger
	catalog Catalog
	opts    Options
}

type channelPlan struct {
	channel    string
	model      string
	efficiency float64
	sigma      float64
	domain     catalog.Domain
}

// NewRunner constructs a Runner for the provided catalog.
func NewRunner(logger *zap.Logger, cat Catalog, opts Options) (*Runner, error) {
	if cat == nil {
		return nil, eris.New("portfolio: catalog cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SamplePoints <= 0 {
		opts.SamplePoints = constants.SamplePoints
	}
	if opts.SamplePoints < 2 {
		return nil, eris.Errorf("portfolio: need at least 2 sample points, got %d", opts.SamplePoints)
	}
	return &Runner{logger: logger, catalog: cat, opts: opts}, nil
}

// Run validates the whole request, then solves every channel. Validation failures
// are returned as *ValidationError before any model is loaded; load or prediction
// failures abort the request with *EvaluationError. No partial result is returned.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	plans, err := r.plan(req)
	if err != nil {
		return nil, err
	}

	results := make([]ChannelResult, len(plans))
	if r.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range plans {
			g.Go(func() error {
				res, err := r.solveChannel(gctx, p)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, p := range plans {
			res, err := r.solveChannel(ctx, p)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	}

	out := aggregate(results)

	r.logger.Info("portfolio computed",
		zap.String("op", "portfolio.Run"),
		zap.Int("channels", len(out.Results)),
		zap.Float64("totalBudget", out.TotalBudget),
		zap.Float64("totalReach", out.TotalReach),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func (r *Runner) plan(req Request) ([]channelPlan, error) {
	channels := constants.Channels()

	for _, ch := range channels {
		if raw, bad := req.malformed[ch]; bad {
			return nil, &ValidationError{Channel: ch, Reason: fmt.Sprintf("%s is not a number", raw)}
		}
		eff, ok := req.Efficiencies[ch]
		if !ok {
			return nil, &ValidationError{Channel: ch}
		}
		if err := validation.ValidateEfficiency(eff); err != nil {
			return nil, &ValidationError{Channel: ch, Reason: err.Error()}
		}
	}

	plans := make([]channelPlan, 0, len(channels))
	for _, ch := range channels {
		name := ch
		if selected, ok := req.Models[ch]; ok {
			name = selected
		}
		if !r.catalog.Has(name) {
			return nil, &ValidationError{Channel: ch, Model: name}
		}

		domain, err := r.catalog.Domain(name)
		if err != nil {
			return nil, &EvaluationError{Channel: ch, Model: name, Err: err}
		}
		sigma, err := r.catalog.Sigma(name)
		if err != nil {
			return nil, &EvaluationError{Channel: ch, Model: name, Err: err}
		}

		plans = append(plans, channelPlan{
			channel:    ch,
			model:      name,
			efficiency: req.Efficiencies[ch],
			sigma:      sigma,
			domain:     domain,
		})
	}
	return plans, nil
}

func (r *Runner) solveChannel(ctx context.Context, p channelPlan) (ChannelResult, error) {
	if err := ctx.Err(); err != nil {
		return ChannelResult{}, eris.Wrapf(err, "portfolio: channel %s", p.channel)
	}

	reg, err := r.catalog.Resolve(p.model)
	if err != nil {
		return ChannelResult{}, &EvaluationError{Channel: p.channel, Model: p.model, Err: err}
	}

	sampled, err := curve.Sample(reg.Predict, p.domain.MinSpend, p.domain.MaxSpend, r.opts.SamplePoints)
	if err != nil {
		return ChannelResult{}, &EvaluationError{Channel: p.channel, Model: p.model, Err: err}
	}

	point, err := efficiency.Solve(sampled.Spend, sampled.Reach, p.efficiency, p.sigma)
	if err != nil {
		return ChannelResult{}, &EvaluationError{Channel: p.channel, Model: p.model, Err: err}
	}
	if !mathutil.IsFinite(point.Reach) {
		return ChannelResult{}, &EvaluationError{Channel: p.channel, Model: p.model,
			Err: eris.Errorf("portfolio: model produced non-finite reach %v at spend %v", point.Reach, point.Budget)}
	}

	r.logger.Debug("channel solved",
		zap.String("op", "portfolio.solveChannel"),
		zap.String("channel", p.channel),
		zap.String("model", p.model),
		zap.Float64("targetEfficiency", p.efficiency),
		zap.Float64("sigma", p.sigma),
		zap.Int("peakIndex", point.PeakIndex),
		zap.Int("kneeIndex", point.Index),
		zap.Float64("efficiency", point.Efficiency),
		zap.Bool("fallback", point.Fallback),
		zap.Bool("degenerate", point.Degenerate),
	)

	return ChannelResult{
		Channel:          p.channel,
		SelectedModel:    p.model,
		TargetEfficiency: p.efficiency,
		Budget:           point.Budget,
		Reach:            point.Reach,
	}, nil
}

func aggregate(results []ChannelResult) *Result {
	out := &Result{Results: results}
	for _, res := range results {
		out.TotalBudget += res.Budget
		out.TotalReach += res.Reach
	}
	for i := range out.Results {
		out.Results[i].BudgetShare = mathutil.CalculatePercentage(out.Results[i].Budget, out.TotalBudget)
	}
	return out
}
