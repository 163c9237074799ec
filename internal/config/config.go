// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process configuration read from the environment.
type Config struct {
	DatabasePath          string
	WeightsPath           string
	LogDir                string
	LogLevel              string
	OllamaURL             string
	OpenAIURL             string
	AnthropicURL          string
	APIAddr               string
	OpenAIAPIKey          string
	AnthropicAPIKey       string
	LLMTimeout            time.Duration
	PollInterval          time.Duration
	FlushInterval         time.Duration
	FeedbackCheckInterval time.Duration
	CloudRateLimit        int
}

// Default values
const (
	defaultOllamaURL             = "http://localhost:11434"
	defaultOpenAIURL             = "https://api.openai.com/v1"
	defaultAnthropicURL          = "https://api.anthropic.com/v1"
	defaultAPIAddr               = "127.0.0.1:7420"
	defaultLLMTimeout            = 30 * time.Second
	defaultPollInterval          = 10 * time.Second
	defaultFlushInterval         = 5 * time.Minute
	defaultFeedbackCheckInterval = 30 * time.Minute
	defaultCloudRateLimit        = 20
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatabasePath:          getEnvString("DATABASE_PATH", defaultPath("omnicoach.db")),
		WeightsPath:           getEnvString("WEIGHTS_PATH", defaultPath("weights.toml")),
		LogDir:                getEnvString("LOG_DIR", defaultPath("logs")),
		LogLevel:              getEnvString("LOG_LEVEL", "info"),
		OllamaURL:             getEnvString("OLLAMA_URL", defaultOllamaURL),
		OpenAIURL:             getEnvString("OPENAI_URL", defaultOpenAIURL),
		AnthropicURL:          getEnvString("ANTHROPIC_URL", defaultAnthropicURL),
		APIAddr:               getEnvString("API_ADDR", defaultAPIAddr),
		OpenAIAPIKey:          getEnvString("OPENAI_API_KEY", ""),
		AnthropicAPIKey:       getEnvString("ANTHROPIC_API_KEY", ""),
		LLMTimeout:            getEnvDuration("LLM_TIMEOUT", defaultLLMTimeout),
		PollInterval:          getEnvDuration("POLL_INTERVAL", defaultPollInterval),
		FlushInterval:         getEnvDuration("FLUSH_INTERVAL", defaultFlushInterval),
		FeedbackCheckInterval: getEnvDuration("FEEDBACK_CHECK_INTERVAL", defaultFeedbackCheckInterval),
		CloudRateLimit:        getEnvInt("CLOUD_RATE_LIMIT", defaultCloudRateLimit),
	}

	if cfg.PollInterval <= 0 || cfg.FlushInterval <= 0 || cfg.FeedbackCheckInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL, FLUSH_INTERVAL and FEEDBACK_CHECK_INTERVAL must be positive")
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure weights directory exists so the watcher can attach to it
	if err := ensureDir(filepath.Dir(cfg.WeightsPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "omnicoach", ".env"),
			filepath.Join(home, ".omnicoach", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// defaultPath returns a path under the per-user config directory.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "omnicoach", name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
