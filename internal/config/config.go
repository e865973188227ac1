// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment names accepted in APP_ENV
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// DefaultLeaderboardSchedule fires once a day at midnight in the configured zone.
const DefaultLeaderboardSchedule = "0 0 0 * * *"

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for the sqlite database (always absolute)
	DiscordToken        string
	Env                 string
	Timezone            string
	LogLevel            string
	LogPretty           bool
	AdminPort           int
	LeaderboardSchedule string

	OpenAIAPIKey    string
	AnthropicAPIKey string
	DeepSeekAPIKey  string
	UpbitBaseURL    string

	// Community board tools are enabled when DCInsideAppID is set
	DCInsideAppID   string
	DCInsideBaseURL string

	Archive *ArchiveConfig
}

// ArchiveConfig holds the S3-compatible bucket used for trade history archives.
// Archiving is disabled when Bucket is empty.
type ArchiveConfig struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether a bucket has been configured
func (a *ArchiveConfig) Enabled() bool {
	return a != nil && a.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRADER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		DiscordToken:        getEnv("DISCORD_BOT_TOKEN", ""),
		Env:                 getEnv("APP_ENV", EnvDevelopment),
		Timezone:            getEnv("TIMEZONE", "Asia/Seoul"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogPretty:           getEnvAsBool("LOG_PRETTY", true),
		AdminPort:           getEnvAsInt("ADMIN_PORT", 8080),
		LeaderboardSchedule: getEnv("LEADERBOARD_SCHEDULE", DefaultLeaderboardSchedule),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		DeepSeekAPIKey:      getEnv("DEEP_SEEK_API_KEY", ""),
		UpbitBaseURL:        getEnv("UPBIT_BASE_URL", "https://api.upbit.com/v1"),
		DCInsideAppID:       getEnv("DCINSIDE_APP_ID", ""),
		DCInsideBaseURL:     getEnv("DCINSIDE_BASE_URL", "https://app.dcinside.com"),
		Archive: &ArchiveConfig{
			Bucket:    getEnv("ARCHIVE_BUCKET", ""),
			Endpoint:  getEnv("ARCHIVE_ENDPOINT", ""),
			Region:    getEnv("ARCHIVE_REGION", "auto"),
			AccessKey: getEnv("ARCHIVE_ACCESS_KEY", ""),
			SecretKey: getEnv("ARCHIVE_SECRET_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.Env {
	case EnvProduction, EnvDevelopment, EnvTest:
	default:
		return fmt.Errorf("APP_ENV must be one of production, development, test (got %q)", c.Env)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}

	// The bot cannot do anything without a gateway connection; tests run without one.
	if c.DiscordToken == "" && c.Env != EnvTest {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	if c.Archive.Enabled() && (c.Archive.AccessKey == "" || c.Archive.SecretKey == "") {
		return fmt.Errorf("ARCHIVE_ACCESS_KEY and ARCHIVE_SECRET_KEY are required when ARCHIVE_BUCKET is set")
	}

	return nil
}

// Location returns the configured timezone. Validate guarantees it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsTest reports whether the process runs under the test execution mode
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// IsProduction reports whether the process runs in production
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DatabasePath returns the sqlite file inside DataDir
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "aitrader.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
