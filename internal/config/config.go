// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port              string
	APIKey            string
	DataDir           string
	SessionTimeout    time.Duration
	SweepInterval     time.Duration
	ScamFlagThreshold int
	FlagConfidence    float64
	Report            ReportConfig
	LLM               LLMConfig
}

// ReportConfig controls the external evaluation callback.
type ReportConfig struct {
	Enabled     bool
	Endpoint    string
	PushTimeout time.Duration
}

// LLMConfig points at the OpenAI-compatible model endpoint. An empty
// APIKey disables the generator; the service then answers with canned
// replies only.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		APIKey:            getEnv("API_KEY", ""),
		DataDir:           getEnv("DATA_DIR", "./data"),
		SessionTimeout:    time.Duration(getEnvInt("SESSION_TIMEOUT_SECONDS", 300)) * time.Second,
		SweepInterval:     time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		ScamFlagThreshold: getEnvInt("SCAM_FLAG_THRESHOLD", 2),
		FlagConfidence:    getEnvFloat("FLAG_CONFIDENCE", 0.3),
		Report: ReportConfig{
			Enabled:     getEnvBool("EVAL_CALLBACK_ENABLED", false),
			Endpoint:    getEnv("EVAL_ENDPOINT", ""),
			PushTimeout: time.Duration(getEnvInt("EVAL_PUSH_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		LLM: LLMConfig{
			BaseURL: getEnv("LLM_BASE_URL", ""),
			APIKey:  getEnv("LLM_API_KEY", ""),
			Model:   getEnv("LLM_MODEL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY cannot be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_SECONDS must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must be > 0")
	}
	if c.ScamFlagThreshold <= 0 {
		return fmt.Errorf("SCAM_FLAG_THRESHOLD must be > 0")
	}
	if c.FlagConfidence <= 0 || c.FlagConfidence >= 1 {
		return fmt.Errorf("FLAG_CONFIDENCE must be in (0, 1)")
	}
	if c.Report.Enabled && c.Report.Endpoint == "" {
		return fmt.Errorf("EVAL_ENDPOINT cannot be empty when EVAL_CALLBACK_ENABLED is set")
	}
	return nil
}

// LLMEnabled reports whether the model-backed generator is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLM.APIKey != "" && c.LLM.Model != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
