package config

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// CatalogConfig lists the curve models that may be selected per channel.
type CatalogConfig struct {
	ModelDir string        `yaml:"modelDir,omitempty" mapstructure:"modelDir"`
	Models   []ModelConfig `yaml:"models" mapstructure:"models"`
}

// ModelConfig describes one fitted curve model and its valid spend domain.
type ModelConfig struct {
	Name     string   `yaml:"name" mapstructure:"name"`
	Channel  string   `yaml:"channel" mapstructure:"channel"`
	File     string   `yaml:"file" mapstructure:"file"`
	MinSpend float64  `yaml:"minSpend" mapstructure:"minSpend"`
	MaxSpend float64  `yaml:"maxSpend" mapstructure:"maxSpend"`
	Sigma    float64  `yaml:"sigma,omitempty" mapstructure:"sigma"`
	Aliases  []string `yaml:"aliases,omitempty" mapstructure:"aliases"`
}

// DefaultSigma returns the smoothing width used for a channel when a model does
// not declare one.
func DefaultSigma(channel string) float64 {
	if channel == constants.ChannelTV {
		return constants.SigmaTV
	}
	return constants.SigmaDefault
}

func (c *CatalogConfig) applyDefaults() {
	if strings.TrimSpace(c.ModelDir) == "" {
		c.ModelDir = constants.DefaultModelDir
	}
	for i := range c.Models {
		m := &c.Models[i]
		m.Name = strings.TrimSpace(m.Name)
		m.Channel = strings.TrimSpace(m.Channel)
		m.File = strings.TrimSpace(m.File)
		if m.Sigma == 0 {
			m.Sigma = DefaultSigma(m.Channel)
		}
	}
}

// Path returns the artifact path of m, resolved against the model directory.
func (c CatalogConfig) Path(m ModelConfig) string {
	if filepath.IsAbs(m.File) {
		return m.File
	}
	return filepath.Join(c.ModelDir, m.File)
}

// Validate checks a single model entry.
func (m ModelConfig) Validate() error {
	if m.Name == "" {
		return eris.New("model name is required")
	}
	if !constants.IsChannel(m.Channel) {
		return eris.Errorf("model %q: unknown channel %q", m.Name, m.Channel)
	}
	if m.File == "" {
		return eris.Errorf("model %q: file is required", m.Name)
	}
	for _, v := range []float64{m.MinSpend, m.MaxSpend, m.Sigma} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("model %q: domain and sigma must be finite", m.Name)
		}
	}
	if m.MinSpend <= 0 || m.MinSpend >= m.MaxSpend {
		return eris.Errorf("model %q: invalid spend domain (%v, %v)", m.Name, m.MinSpend, m.MaxSpend)
	}
	if m.Sigma < 0 {
		return eris.Errorf("model %q: sigma must not be negative", m.Name)
	}
	return nil
}

// Validate checks every entry and that names and aliases are unique.
func (c CatalogConfig) Validate() error {
	if len(c.Models) == 0 {
		return eris.New("catalog: at least one model is required")
	}
	seen := make(map[string]string)
	for _, m := range c.Models {
		if err := m.Validate(); err != nil {
			return eris.Wrap(err, "catalog")
		}
		keys := append([]string{m.Name}, m.Aliases...)
		for _, key := range keys {
			key = strings.TrimSpace(key)
			if key == "" {
				return eris.Errorf("catalog: model %q has an empty alias", m.Name)
			}
			if owner, dup := seen[key]; dup {
				return eris.Errorf("catalog: name %q used by both %q and %q", key, owner, m.Name)
			}
			seen[key] = m.Name
		}
	}
	return nil
}

// Lookup finds the entry registered under name or one of its aliases.
func (c CatalogConfig) Lookup(name string) (ModelConfig, bool) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, true
		}
		for _, alias := range m.Aliases {
			if alias == name {
				return m, true
			}
		}
	}
	return ModelConfig{}, false
}
