package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, read from the environment.
type Config struct {
	Port         string
	DatabasePath string

	// Fetcher
	UserAgent          string
	FetchTimeout       time.Duration
	SourceFetchDelay   time.Duration
	FetchIntervalHours int

	// Summarizer
	SummarizerURL       string
	SummarizerAPIKey    string
	SummaryDelay        time.Duration
	MaxArticlesPerBatch int

	// Cleanup
	CleanupRetentionDays       int
	FailedArticleRetentionDays int

	// Outbound RSS
	PublicURL       string
	FeedTitle       string
	FeedDescription string

	// Auth
	SessionSecret string
	AdminUsername string
	AdminPassword string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/ainews.db"),

		UserAgent:          getEnv("USER_AGENT", "ainews-pipeline/1.0 (+https://github.com/ainews)"),
		FetchTimeout:       time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		SourceFetchDelay:   time.Duration(getEnvAsInt("SOURCE_FETCH_DELAY_SECONDS", 2)) * time.Second,
		FetchIntervalHours: getEnvAsInt("FETCH_INTERVAL_HOURS", 3),

		SummarizerURL:       getEnv("SUMMARIZER_URL", ""),
		SummarizerAPIKey:    getEnv("SUMMARIZER_API_KEY", ""),
		SummaryDelay:        time.Duration(getEnvAsInt("SUMMARY_DELAY_MINUTES", 5)) * time.Minute,
		MaxArticlesPerBatch: getEnvAsInt("MAX_ARTICLES_PER_BATCH", 10),

		CleanupRetentionDays:       getEnvAsInt("CLEANUP_RETENTION_DAYS", 30),
		FailedArticleRetentionDays: getEnvAsInt("FAILED_ARTICLE_RETENTION_DAYS", 7),

		PublicURL:       getEnv("PUBLIC_URL", "http://localhost:8080"),
		FeedTitle:       getEnv("FEED_TITLE", "AI Literacy News"),
		FeedDescription: getEnv("FEED_DESCRIPTION", "Curated AI news for educators and learners"),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

// FetchInterval returns the scheduled fetch interval as a duration.
func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.FetchIntervalHours) * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
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
