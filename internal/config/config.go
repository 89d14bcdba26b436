// Package config loads service configuration from the environment.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds everything the sampling service needs from the environment.
type Config struct {
	APIPort  string
	LogLevel string

	ElasticsearchURL string

	CouchbaseURL      string
	CouchbaseUsername string
	CouchbasePassword string
	CouchbaseBucket   string

	BridgeURL     string
	BridgeTimeout time.Duration

	SubmissionURL string

	ConsentPageURL string
	SetupPageURL   string
	SurveyPageURL  string
}

// Load reads a .env file if one is present and then builds the configuration
// from the environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Info().Msg("No .env file found, assuming environment variables are set")
	}

	return &Config{
		APIPort:  getEnvOrDefault("API_PORT", "8080"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),

		CouchbaseURL:      getEnvOrDefault("COUCHBASE_URL", "couchbase://cues-db"),
		CouchbaseUsername: getEnvOrDefault("COUCHBASE_USERNAME", "cues_user"),
		CouchbasePassword: getEnvOrDefault("COUCHBASE_PASSWORD", "password"),
		CouchbaseBucket:   getEnvOrDefault("COUCHBASE_BUCKET", "cues"),

		BridgeURL:     getEnvOrDefault("BRIDGE_URL", "http://localhost:8090"),
		BridgeTimeout: getDurationOrDefault("BRIDGE_TIMEOUT", 30*time.Second),

		SubmissionURL: getEnvOrDefault("SUBMISSION_URL", "https://cues.stealthcompany.com/submit"),

		ConsentPageURL: getEnvOrDefault("CONSENT_PAGE_URL", "https://cues.stealthcompany.com/consent.html"),
		SetupPageURL:   getEnvOrDefault("SETUP_PAGE_URL", "https://cues.stealthcompany.com/surveys/setup.html"),
		SurveyPageURL:  getEnvOrDefault("SURVEY_PAGE_URL", "https://cues.stealthcompany.com/surveys/survey.html"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationOrDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration, using default")
		return fallback
	}
	return d
}
