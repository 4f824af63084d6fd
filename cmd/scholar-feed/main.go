// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-feed CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-feed/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the scholar-feed CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-feed",
	Short: "Aggregate recently published papers for researcher keywords",
	Long: `scholar-feed merges two upstream sources - the Semantic Scholar bulk
search API and a scraped Google Scholar results page - into one normalized,
deduplicated, time-windowed paper feed.

Credentials are read from .env, from environment variables, or from
plain-text files in .secrets/ (semantic-scholar-api-key,
scraperapi-api-key).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.LoadDotenv(".env"); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scholar-feed.yaml or ~/.config/scholar-feed/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scholar-feed")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scholar-feed"))
		}
	}

	viper.SetEnvPrefix("SCHOLAR_FEED")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
