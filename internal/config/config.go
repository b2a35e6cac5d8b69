/**
 * Configuration for the folio worker.
 *
 * Loaded from environment variables (optionally via a .env file in main).
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration (job queues)
	RedisURL string

	// PostgreSQL configuration
	DatabaseURL string

	// Worker configuration
	WorkerConcurrency int
	ProcessingTimeout time.Duration

	// OCR configuration
	OCRLanguages  []string // tesseract language codes, e.g. chi_sim, eng
	LineTolerance int      // vertical pixel tolerance for reading-order line grouping

	// Translation configuration
	OpenAIAPIKey     string
	TranslationModel string

	// Maintenance configuration
	TaskRetentionDays int
	SweepSchedule     string // asynq scheduler spec, cron or @every form
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 4),
		ProcessingTimeout: time.Duration(getEnvAsIntOrDefault("PROCESSING_TIMEOUT_MS", 300000)) * time.Millisecond,
		OCRLanguages:      splitList(getEnvOrDefault("OCR_LANGUAGES", "chi_sim,eng")),
		LineTolerance:     getEnvAsIntOrDefault("LINE_TOLERANCE", 20),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		TranslationModel:  getEnvOrDefault("TRANSLATION_MODEL", "gpt-4o-mini"),
		TaskRetentionDays: getEnvAsIntOrDefault("TASK_RETENTION_DAYS", 30),
		SweepSchedule:     getEnvOrDefault("SWEEP_SCHEDULE", "@every 24h"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must name at least one tesseract language")
	}

	if c.LineTolerance < 0 {
		return fmt.Errorf("LINE_TOLERANCE must be non-negative, got %d", c.LineTolerance)
	}

	if c.TaskRetentionDays < 1 {
		return fmt.Errorf("TASK_RETENTION_DAYS must be at least 1, got %d", c.TaskRetentionDays)
	}

	return nil
}

// RetentionPeriod returns the task retention window as a duration.
func (c *Config) RetentionPeriod() time.Duration {
	return time.Duration(c.TaskRetentionDays) * 24 * time.Hour
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
