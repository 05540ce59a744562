// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/ThejanDulara/MMM-Reach/internal/portfolio"
)

// FindChannel finds a channel result by channel name.
// Returns a pointer to the result if found, nil otherwise.
func FindChannel(res *portfolio.Result, channel string) *portfolio.ChannelResult {
	if res == nil {
		return nil
	}
	for i := range res.Results {
		if res.Results[i].Channel == channel {
			return &res.Results[i]
		}
	}
	return nil
}

