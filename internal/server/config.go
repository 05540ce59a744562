package server

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/ThejanDulara/MMM-Reach/internal/config"
	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address         string
	MaxBodySize     int64
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	RateLimit       config.RateLimitConfig
}

// NewConfig resolves the server section of the configuration into runtime values.
func NewConfig(sc config.ServerConfig) (*Config, error) {
	size, err := ParseSize(sc.MaxBodySize)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = constants.DefaultMaxBodySizeBytes
	}

	timeout := time.Duration(sc.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = constants.DefaultShutdownTimeoutSeconds * time.Second
	}

	origins := sc.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Config{
		Address:         sc.ListenAddress(),
		MaxBodySize:     size,
		ShutdownTimeout: timeout,
		AllowedOrigins:  origins,
		RateLimit:       sc.RateLimit,
	}, nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, eris.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid size value %q", value)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	default:
		return 0, eris.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 || (n != 0 && result/multiplier != n) {
		return 0, eris.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
