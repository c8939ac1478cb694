package config

import (
	"os"
	"strconv"

	"skymetrics/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Output   OutputConfig
	Results  ResultsConfig
}

// DatabaseConfig holds the survey database connection settings
type DatabaseConfig struct {
	Driver string // "postgres" or "excel"
	URL    string // connection string, or file path for the excel driver
	Table  string // visits table to query
}

// OutputConfig holds archive output settings
type OutputConfig struct {
	Dir       string
	SaveEarly bool
}

// ResultsConfig holds the results registry settings
type ResultsConfig struct {
	// Path is the sqlite file for the registry; empty disables it.
	Path string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			Driver: getEnv("SURVEY_DB_DRIVER", "postgres"),
			URL:    os.Getenv("SURVEY_DB_URL"),
			Table:  getEnv("SURVEY_DB_TABLE", "visits"),
		},
		Output: OutputConfig{
			Dir:       getEnv("OUT_DIR", "."),
			SaveEarly: getEnvBool("SAVE_EARLY", true),
		},
		Results: ResultsConfig{
			Path: os.Getenv("RESULTS_DB"),
		},
	}
	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(c *Config) error {
	switch c.Database.Driver {
	case "postgres", "excel":
	default:
		return errors.Configuration("SURVEY_DB_DRIVER must be postgres or excel, got " + c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.Configuration("SURVEY_DB_URL is required")
	}
	if c.Database.Table == "" {
		return errors.Configuration("SURVEY_DB_TABLE cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
