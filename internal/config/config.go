package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"malti-dashboard/internal/status"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	HTTPPort       string
	AppMode        string
	FiberPrefork   bool
	APIBaseURL     string
	APIKeyFile     string
	APITimeout     time.Duration
	LogLevel       string
	ThresholdsFile string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", ":8080"),
		AppMode:        strings.ToLower(getEnv("APP_MODE", "dev")),
		FiberPrefork:   parseBoolEnv("FIBER_PREFORK", false),
		APIKeyFile:     getEnv("MALTI_API_KEY_FILE", ".malti_credentials.json"),
		APITimeout:     parseDurationEnv("MALTI_API_TIMEOUT", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ThresholdsFile: os.Getenv("THRESHOLDS_FILE"),
	}
	cfg.APIBaseURL = strings.TrimRight(os.Getenv("MALTI_API_URL"), "/")
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("MALTI_API_URL is required")
	}
	return cfg, nil
}

// Thresholds returns the classification defaults, overlaid with the values
// from ThresholdsFile when one is configured.
func (c *Config) Thresholds() (status.Thresholds, error) {
	defaults := status.DefaultThresholds()
	if c.ThresholdsFile == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(c.ThresholdsFile)
	if err != nil {
		return defaults, fmt.Errorf("read thresholds file: %w", err)
	}

	var overrides status.Overrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return defaults, fmt.Errorf("parse thresholds file: %w", err)
	}
	return defaults.With(overrides), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseBoolEnv(key string, fallback bool) bool {
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

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
