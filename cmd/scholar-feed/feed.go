// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-feed/internal/collect"
	"github.com/pdiddy/scholar-feed/internal/feed"
	"github.com/pdiddy/scholar-feed/internal/secrets"
	"github.com/pdiddy/scholar-feed/internal/store"
	"github.com/pdiddy/scholar-feed/pkg/types"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Build the aggregate paper feed for a set of keywords",
	Long: `Feed runs one collector across all keywords, merges the results,
removes duplicate papers, and prints the aggregate feed.

The api collector queries the Semantic Scholar bulk search API and honors
--window. The scrape collector fetches a rendered Google Scholar results
page through a ScraperAPI proxy and always uses a 30-day window; it
requires a ScraperAPI key.`,
	RunE: runFeed,
}

func init() {
	feedCmd.Flags().String("keywords", "", "keywords to collect (comma-separated)")
	feedCmd.Flags().String("collector", "api", "collector to use: api or scrape")
	feedCmd.Flags().Int("window", 7, "trailing window in days (api collector)")
	feedCmd.Flags().Int("max", 50, "maximum number of papers in the feed")
	feedCmd.Flags().Bool("json", false, "output the feed as JSON")
	feedCmd.Flags().String("save", "", "save the feed to a YAML file")
	feedCmd.Flags().String("db", "", "persist the feed into a SQLite database")

	rootCmd.AddCommand(feedCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	rawKeywords, _ := cmd.Flags().GetString("keywords")
	keywords := feed.DedupeKeywords(strings.Split(rawKeywords, ","))
	if len(keywords) == 0 {
		return fmt.Errorf("no keywords: provide --keywords \"topic one,topic two\"")
	}

	collectorName, _ := cmd.Flags().GetString("collector")
	windowDays, _ := cmd.Flags().GetInt("window")
	maxPapers, _ := cmd.Flags().GetInt("max")

	cfg := types.FeedConfig{
		Collector: types.CollectorConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   httpTimeout(),
				UserAgent: userAgent(),
			},
			WindowDays: windowDays,
		},
		MaxPapers: maxPapers,
	}

	client := &http.Client{Timeout: cfg.Collector.Timeout}

	var collector collect.Collector
	switch collectorName {
	case "api":
		// The Semantic Scholar key is optional; without it requests share
		// the public rate limit.
		cfg.Collector.APIKey = secrets.Resolve(loadedSecrets, secrets.KeySemanticScholar)
		collector = &collect.SemanticCollector{Client: client}
	case "scrape":
		cfg.Collector.APIKey = secrets.Resolve(loadedSecrets, secrets.KeyScraperAPI)
		if cfg.Collector.APIKey == "" {
			return fmt.Errorf("the scrape collector requires a ScraperAPI key (scraperapi-api-key secret or SCRAPERAPI_API_KEY)")
		}
		collector = &collect.ScrapeCollector{Client: client}
	default:
		return fmt.Errorf("unknown collector %q: use api or scrape", collectorName)
	}

	out, err := feed.Build(cmd.Context(), keywords, collector, cfg, os.Stderr)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := feed.WriteFeedFile(path, keywords, collector.Name(), cfg, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved feed to %s\n", path)
	}

	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		if err := persistFeed(cmd, dbPath, keywords, out); err != nil {
			return err
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return feed.FormatJSON(out, os.Stdout)
	}
	feed.FormatTable(out, os.Stdout)
	return nil
}

func persistFeed(cmd *cobra.Command, dbPath string, keywords []string, out feed.Output) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveKeywords(cmd.Context(), keywords); err != nil {
		return err
	}
	summary, err := db.SavePapers(cmd.Context(), out.Papers)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Persisted %d new, %d updated paper(s) to %s\n",
		summary.Inserted, summary.Updated, dbPath)
	return nil
}

func httpTimeout() time.Duration {
	if d := viper.GetDuration("http.timeout"); d > 0 {
		return d
	}
	return 30 * time.Second
}

func userAgent() string {
	if ua := viper.GetString("http.user_agent"); ua != "" {
		return ua
	}
	return "scholar-feed/" + version
}
