// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scholar-feed/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CollectorConfig holds settings shared by both collectors.
type CollectorConfig struct {
	HTTPConfig `yaml:",inline"`

	// WindowDays is the trailing window, in days, a paper's publication
	// date must fall inside. The scrape collector ignores this and always
	// uses its fixed 30-day window.
	WindowDays int `json:"window_days" yaml:"window_days"`

	// APIKey authenticates against the upstream: the Semantic Scholar key
	// for the API collector, the ScraperAPI key for the scrape collector.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// FeedConfig holds settings for a feed build.
type FeedConfig struct {
	Collector CollectorConfig `yaml:",inline"`

	// MaxPapers caps the number of distinct papers accumulated across all
	// keywords (default 50).
	MaxPapers int `json:"max_papers" yaml:"max_papers"`
}
