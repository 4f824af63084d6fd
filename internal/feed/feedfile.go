// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-feed/pkg/types"
)

// FeedFile is the on-disk snapshot of one feed build. A researcher can
// save a run to a file and reload it later without re-querying upstreams.
type FeedFile struct {
	Keywords   []string      `yaml:"keywords"`
	Collector  string        `yaml:"collector"`
	WindowDays int           `yaml:"window_days"`
	Papers     []types.Paper `yaml:"papers"`
	Summary    FeedSummary   `yaml:"summary"`
}

// FeedSummary stores result statistics and a timestamp.
type FeedSummary struct {
	Total         int       `yaml:"total"`
	DupsRemoved   int       `yaml:"duplicates_removed"`
	KeywordErrors []string  `yaml:"keyword_errors,omitempty"`
	Timestamp     time.Time `yaml:"timestamp"`
}

// WriteFeedFile saves a feed build and its parameters to a YAML file.
func WriteFeedFile(path string, keywords []string, collectorName string, cfg types.FeedConfig, out Output) error {
	ff := FeedFile{
		Keywords:   DedupeKeywords(keywords),
		Collector:  collectorName,
		WindowDays: cfg.Collector.WindowDays,
		Papers:     out.Papers,
		Summary: FeedSummary{
			Total:         len(out.Papers),
			DupsRemoved:   out.DupsRemoved,
			KeywordErrors: out.KeywordErrors,
			Timestamp:     time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&ff)
	if err != nil {
		return fmt.Errorf("marshaling feed file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing feed file: %w", err)
	}
	return nil
}

// ReadFeedFile loads a previously saved feed snapshot.
func ReadFeedFile(path string) (*FeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feed file: %w", err)
	}
	var ff FeedFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing feed file %s: %w", path, err)
	}
	return &ff, nil
}
