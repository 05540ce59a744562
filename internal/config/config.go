// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating the config.
package config

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// Configuration holds all configuration for mmm-reach.
type Configuration struct {
	Logging   LoggingConfig   `yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig    `yaml:"output,omitempty" mapstructure:"output"`
	Server    ServerConfig    `yaml:"server,omitempty" mapstructure:"server"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Portfolio PortfolioConfig `yaml:"portfolio,omitempty" mapstructure:"portfolio"`
	History   HistoryConfig   `yaml:"history,omitempty" mapstructure:"history"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, xlsx
}

// ServerConfig holds HTTP listener options.
type ServerConfig struct {
	Address         string          `yaml:"address,omitempty" mapstructure:"address"`
	Port            int             `yaml:"port,omitempty" mapstructure:"port"`
	MaxBodySize     string          `yaml:"maxBodySize,omitempty" mapstructure:"maxBodySize"`
	ShutdownTimeout int             `yaml:"shutdownTimeoutSecs,omitempty" mapstructure:"shutdownTimeoutSecs"`
	AllowedOrigins  []string        `yaml:"allowedOrigins,omitempty" mapstructure:"allowedOrigins"`
	RateLimit       RateLimitConfig `yaml:"rateLimit,omitempty" mapstructure:"rateLimit"`
}

// RateLimitConfig holds token bucket settings for the analyze endpoint.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled,omitempty" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty" mapstructure:"requestsPerSecond"`
	Burst             int     `yaml:"burst,omitempty" mapstructure:"burst"`
}

// PortfolioConfig tunes how a portfolio request is evaluated.
type PortfolioConfig struct {
	// Parallel evaluates the channels concurrently.
	Parallel bool `yaml:"parallel" mapstructure:"parallel"`
	// SamplePoints is the number of spend samples per curve.
	SamplePoints int `yaml:"samplePoints,omitempty" mapstructure:"samplePoints"`
}

// HistoryConfig enables the run history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path,omitempty" mapstructure:"path"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PORT")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", "64K")
	v.SetDefault("server.shutdownTimeoutSecs", constants.DefaultShutdownTimeoutSeconds)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerSecond", 10.0)
	v.SetDefault("server.rateLimit.burst", 20)
	v.SetDefault("catalog.modelDir", constants.DefaultModelDir)
	v.SetDefault("portfolio.parallel", true)
	v.SetDefault("portfolio.samplePoints", constants.SamplePoints)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "mmm-reach.db")
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path looks for config.yaml in the working
// directory and falls back to defaults when none exists.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath == "" {
		v.SetConfigName(strings.TrimSuffix(constants.DefaultConfigFile, ".yaml"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, eris.Wrap(err, "config: read file")
			}
		}
	} else {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "config: read file %s", configPath)
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, eris.Wrap(err, "config: read")
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, eris.Wrap(err, "config: unable to decode into struct")
	}
	configuration.Catalog.applyDefaults()
	return &configuration, nil
}

// ListenAddress returns the address to listen on. A port set through PORT or
// server.port replaces the port of the configured address.
func (s ServerConfig) ListenAddress() string {
	addr := s.Address
	if addr == "" {
		addr = constants.DefaultServerAddress
	}
	if s.Port <= 0 {
		return addr
	}
	host := addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
	}
	return host + ":" + strconv.Itoa(s.Port)
}
