package config

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
	"github.com/ThejanDulara/MMM-Reach/pkg/validation"
)

// Validate returns the first hard configuration error, if any.
func (c *Configuration) Validate() error {
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		return err
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	if c.Portfolio.SamplePoints != 0 && c.Portfolio.SamplePoints < 2 {
		return eris.Errorf("portfolio.samplePoints must be at least 2, got %d", c.Portfolio.SamplePoints)
	}
	if c.History.Enabled && c.History.Path == "" {
		return eris.New("history.path is required when history is enabled")
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RequestsPerSecond <= 0 || c.Server.RateLimit.Burst <= 0) {
		return eris.New("server.rateLimit needs positive requestsPerSecond and burst when enabled")
	}
	return c.Catalog.Validate()
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	for _, ch := range constants.Channels() {
		m, ok := c.Catalog.Lookup(ch)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Channel '%s' has no default model; requests must select one", ch))
			continue
		}
		if m.Channel != ch {
			warnings = append(warnings, fmt.Sprintf("Default model for channel '%s' belongs to channel '%s'", ch, m.Channel))
		}
	}

	for _, m := range c.Catalog.Models {
		if m.File == "" {
			continue
		}
		if _, err := os.Stat(c.Catalog.Path(m)); err != nil {
			warnings = append(warnings, fmt.Sprintf("Model '%s' artifact %s is not readable: %v", m.Name, c.Catalog.Path(m), err))
		}
	}

	return warnings
}
