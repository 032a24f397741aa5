package config

import (
	"time"

	"shelver/internal/distance"
)

// MatchWeights returns the default weight table with configured overrides applied.
func (c *Config) MatchWeights() distance.Weights {
	return distance.DefaultWeights().WithOverrides(c.Matching.Weights)
}

// PollInterval returns the workflow poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollInterval) * time.Second
}

// NtfyTimeout returns the ntfy request timeout as a duration.
func (c *Config) NtfyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// SettleWindow returns how long a blackhole entry must stay unchanged before
// it counts as completed.
func (d DownloadClient) SettleWindow() time.Duration {
	return time.Duration(d.SettleSeconds) * time.Second
}
