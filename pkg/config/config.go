// Package config provides configuration management for the amortization tool.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Ledger    LedgerConfig
	Amortize  AmortizeConfig
	Beancount BeancountConfig
	Debug     bool
}

// LedgerConfig describes the ledger a host application loads.
type LedgerConfig struct {
	// InputFiles are the ledger files, in load order.
	InputFiles []string
	// Prefix is the URL path prefix the host web UI is mounted under.
	// Nothing here reads it; it is carried for the web host that embeds the ledger.
	Prefix string
}

// AmortizeConfig represents amortization settings.
type AmortizeConfig struct {
	// Today overrides the evaluation date (YYYY-MM-DD). Empty means the current date.
	Today    string
	Workers  int
	Rounding string
}

// BeancountConfig represents where generated Beancount files are written.
type BeancountConfig struct {
	Root   string
	// DBPath is a SQLite file path or a postgres:// URL. Empty means {Root}/.amortize/history.db.
	DBPath string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	workers, err := parseIntEnv("AMORTIZE_WORKERS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid AMORTIZE_WORKERS: %w", err)
	}

	config := &Config{
		Ledger: LedgerConfig{
			InputFiles: splitList(os.Getenv("BEANCOUNT_INPUT_FILE")),
			Prefix:     os.Getenv("PREFIX"),
		},
		Amortize: AmortizeConfig{
			Today:    os.Getenv("AMORTIZE_TODAY"),
			Workers:  workers,
			Rounding: getEnvOrDefault("AMORTIZE_ROUNDING", "half_even"),
		},
		Beancount: BeancountConfig{
			Root:   getEnvOrDefault("BEANCOUNT_ROOT", "./beancount"),
			DBPath: os.Getenv("BEANCOUNT_DB_PATH"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "ledger":
			switch path[1] {
			case "inputFiles":
				value = strings.Join(c.Ledger.InputFiles, ",")
			case "prefix":
				value = c.Ledger.Prefix
			}
		case "amortize":
			switch path[1] {
			case "today":
				value = c.Amortize.Today
			case "rounding":
				value = c.Amortize.Rounding
			}
		case "beancount":
			switch path[1] {
			case "root":
				value = c.Beancount.Root
			case "dbPath":
				value = c.Beancount.DBPath
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
