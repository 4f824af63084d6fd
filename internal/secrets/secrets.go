// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads upstream API credentials from a directory of
// plain-text files and from optional .env files. Each file in the
// directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: semantic-scholar-api-key, scraperapi-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Key names looked up by the CLI, as filenames under the secrets directory
// and as environment variable fallbacks.
const (
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyScraperAPI      = "scraperapi-api-key"
)

// envFallbacks maps key names to the environment variables consulted when
// no secret file provides a value.
var envFallbacks = map[string]string{
	KeySemanticScholar: "SEMANTIC_SCHOLAR_API_KEY",
	KeyScraperAPI:      "SCRAPERAPI_API_KEY",
}

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory or missing files are not errors; Load
// returns an empty map. Unreadable files produce a warning on stderr but
// do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotenv loads variables from a .env file into the process
// environment. A missing file is not an error.
func LoadDotenv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Resolve returns the value for key: the secret file value when present,
// otherwise the key's environment variable fallback.
func Resolve(secrets map[string]string, key string) string {
	if v, ok := secrets[key]; ok {
		return v
	}
	if env, ok := envFallbacks[key]; ok {
		return os.Getenv(env)
	}
	return ""
}
