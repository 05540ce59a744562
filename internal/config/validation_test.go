package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	base := func() Configuration {
		return Configuration{
			Catalog: CatalogConfig{Models: []ModelConfig{validModel()}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr bool
	}{
		{"minimal", func(*Configuration) {}, false},
		{"bad log level", func(c *Configuration) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Configuration) { c.Logging.Format = "xml" }, true},
		{"bad output format", func(c *Configuration) { c.Output.Format = "html" }, true},
		{"xlsx output", func(c *Configuration) { c.Output.Format = "xlsx" }, false},
		{"one sample point", func(c *Configuration) { c.Portfolio.SamplePoints = 1 }, true},
		{"history without path", func(c *Configuration) { c.History.Enabled = true }, true},
		{"rate limit without burst", func(c *Configuration) {
			c.Server.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 5}
		}, true},
		{"empty catalog", func(c *Configuration) { c.Catalog.Models = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfiguration(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"tv.json", "fb.json", "radio.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(`{"kind":"linear","slope":1}`), 0600))
	}

	conf := Configuration{Catalog: CatalogConfig{
		ModelDir: dir,
		Models: []ModelConfig{
			{Name: "TV", Channel: "TV", File: "tv.json", MinSpend: 1, MaxSpend: 2},
			{Name: "FB 1+", Channel: "Facebook", File: "fb.json", MinSpend: 1, MaxSpend: 2, Aliases: []string{"Facebook"}},
			{Name: "Radio", Channel: "Radio", File: "radio.json", MinSpend: 1, MaxSpend: 2, Aliases: []string{"YouTube"}},
			{Name: "Press", Channel: "Press", File: "press.json", MinSpend: 1, MaxSpend: 2},
		},
	}}

	warnings := conf.ValidateConfiguration()
	require.Len(t, warnings, 2)
	assert.True(t, strings.Contains(warnings[0], "'YouTube'") && strings.Contains(warnings[0], "'Radio'"), warnings[0])
	assert.Contains(t, warnings[1], "press.json")
}

func TestValidateConfigurationMissingDefault(t *testing.T) {
	conf := Configuration{Catalog: CatalogConfig{
		ModelDir: t.TempDir(),
		Models:   []ModelConfig{{Name: "TV 2+", Channel: "TV", MinSpend: 1, MaxSpend: 2}},
	}}

	warnings := conf.ValidateConfiguration()
	assert.Len(t, warnings, 5)
	assert.Contains(t, warnings[0], "Channel 'TV' has no default model")
}
