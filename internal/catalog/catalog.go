// Package catalog maps curve model names to their fitted regressors and spend
// domains. Regressors are loaded lazily, at most once per model, and shared by
// concurrent readers.
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ThejanDulara/MMM-Reach/internal/config"
	"github.com/ThejanDulara/MMM-Reach/internal/model"
	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// ErrModelNotFound is returned for names that are neither a model nor an alias.
var ErrModelNotFound = eris.New("catalog: model not found")

// Domain is the spend interval over which a model's predictions are meaningful.
type Domain struct {
	MinSpend float64 `json:"min_spend" yaml:"minSpend"`
	MaxSpend float64 `json:"max_spend" yaml:"maxSpend"`
}

// Entry is one catalog model.
type Entry struct {
	Name    string   `json:"name" yaml:"name"`
	Channel string   `json:"channel" yaml:"channel"`
	Domain  Domain   `json:"domain" yaml:"domain"`
	Sigma   float64  `json:"sigma" yaml:"sigma"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	path    string
}

// Loader reads the regressor stored at path.
type Loader func(path string) (model.Regressor, error)

// Option configures a Catalog.
type Option func(*Catalog)

// WithLoader replaces the artifact loader, which defaults to model.LoadFile.
func WithLoader(load Loader) Option {
	return func(c *Catalog) {
		if load != nil {
			c.load = load
		}
	}
}

// Catalog resolves model names to regressors.
type Catalog struct {
	logger  *zap.Logger
	load    Loader
	entries []Entry
	byName  map[string]int

	group  singleflight.Group
	mu     sync.RWMutex
	models map[string]model.Regressor
}

// New builds a catalog from validated configuration.
func New(logger *zap.Logger, cfg config.CatalogConfig, opts ...Option) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Catalog{
		logger: logger,
		load:   model.LoadFile,
		byName: make(map[string]int),
		models: make(map[string]model.Regressor),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, m := range cfg.Models {
		sigma := m.Sigma
		if sigma == 0 {
			sigma = config.DefaultSigma(m.Channel)
		}
		c.byName[m.Name] = len(c.entries)
		for _, alias := range m.Aliases {
			c.byName[alias] = len(c.entries)
		}
		c.entries = append(c.entries, Entry{
			Name:    m.Name,
			Channel: m.Channel,
			Domain:  Domain{MinSpend: m.MinSpend, MaxSpend: m.MaxSpend},
			Sigma:   sigma,
			Aliases: append([]string(nil), m.Aliases...),
			path:    cfg.Path(m),
		})
	}

	return c, nil
}

// Lookup returns the entry registered under name or one of its aliases.
func (c *Catalog) Lookup(name string) (Entry, error) {
	idx, ok := c.byName[name]
	if !ok {
		return Entry{}, eris.Wrapf(ErrModelNotFound, "catalog: %q", name)
	}
	return c.entries[idx], nil
}

// Has reports whether name resolves to a model.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Domain returns the spend domain of the named model.
func (c *Catalog) Domain(name string) (Domain, error) {
	e, err := c.Lookup(name)
	if err != nil {
		return Domain{}, err
	}
	return e.Domain, nil
}

// Sigma returns the smoothing width configured for the named model.
func (c *Catalog) Sigma(name string) (float64, error) {
	e, err := c.Lookup(name)
	if err != nil {
		return 0, err
	}
	return e.Sigma, nil
}

// Resolve returns the regressor of the named model, loading it on first use.
// Concurrent callers for the same model share a single load. Failed loads are
// not cached.
func (c *Catalog) Resolve(name string) (model.Regressor, error) {
	e, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	reg, ok := c.models[e.Name]
	c.mu.RUnlock()
	if ok {
		return reg, nil
	}

	v, err, _ := c.group.Do(e.Name, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.models[e.Name]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := c.load(e.path)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: load model %q", e.Name)
		}

		c.mu.Lock()
		c.models[e.Name] = loaded
		c.mu.Unlock()

		c.logger.Debug("loaded curve model",
			zap.String("op", "catalog.Resolve"),
			zap.String("model", e.Name),
			zap.String("kind", loaded.Kind().String()),
			zap.String("path", e.path),
		)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.Regressor), nil
}

// Loaded returns the number of models currently held in memory.
func (c *Catalog) Loaded() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Entries returns every model in configuration order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// ChannelModels groups the selectable models by channel name. Within a channel,
// models keep their configuration order. Aliases are not listed.
func (c *Catalog) ChannelModels() map[string][]Entry {
	out := make(map[string][]Entry, len(constants.Channels()))
	for _, e := range c.entries {
		out[e.Channel] = append(out[e.Channel], e)
	}
	return out
}

// Verify loads every model so missing or malformed artifacts are reported before
// traffic is served. All failures are collected.
func (c *Catalog) Verify(ctx context.Context) error {
	var failed []string
	var firstErr error
	for _, e := range c.entries {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "catalog: verify")
		}
		if _, err := c.Resolve(e.Name); err != nil {
			failed = append(failed, e.Name)
			if firstErr == nil {
				firstErr = err
			}
			c.logger.Error("curve model failed to load",
				zap.String("op", "catalog.Verify"),
				zap.String("model", e.Name),
				zap.Error(err),
			)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return eris.Wrapf(firstErr, "catalog: %d model(s) failed to load: %v", len(failed), failed)
	}
	return nil
}
