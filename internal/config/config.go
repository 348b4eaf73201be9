package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string

	// S3
	StorageDriver     string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool
	FileURLExpiry     time.Duration

	// AssemblyAI
	AssemblyAIAPIKey  string
	AssemblyAIBaseURL string
	WebhookSecret     string
	PublicBaseURL     string

	// OpenRouter
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string

	// Email
	ResendAPIKey  string
	ResendBaseURL string
	EmailFrom     string
	AppURL        string

	// Jobs
	RedisURL          string
	WorkerConcurrency int
	WorkerInterval    time.Duration
	PollInterval      time.Duration
	MaxPollAttempts   int

	// Upload limits
	MaxFileSize           int64
	DefaultOrganizationID string

	SlugMaxAttempts int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           getEnv("DATABASE_URL", "data/casevia.db"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		StorageDriver:         getEnv("STORAGE_DRIVER", "s3"),
		S3Endpoint:            getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:         getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey:     getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:          getEnv("S3_BUCKET_NAME", "casevia-uploads"),
		S3UseSSL:              getEnv("S3_USE_SSL", "false") == "true",
		AssemblyAIAPIKey:      getEnv("ASSEMBLYAI_API_KEY", ""),
		AssemblyAIBaseURL:     getEnv("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"),
		WebhookSecret:         getEnv("WEBHOOK_SECRET", ""),
		PublicBaseURL:         strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		OpenRouterAPIKey:      getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:       getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
		OpenRouterBaseURL:     getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		ResendAPIKey:          getEnv("RESEND_API_KEY", ""),
		ResendBaseURL:         getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		EmailFrom:             getEnv("EMAIL_FROM", "Casevia <notifications@casevia.app>"),
		AppURL:                strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		RedisURL:              getEnv("REDIS_URL", ""),
		DefaultOrganizationID: getEnv("DEFAULT_ORGANIZATION_ID", "default"),
	}

	var err error
	if cfg.FileURLExpiry, err = getDuration("FILE_URL_EXPIRY", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.WorkerInterval, err = getDuration("WORKER_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.WorkerConcurrency, err = getInt("WORKER_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.MaxPollAttempts, err = getInt("MAX_POLL_ATTEMPTS", 120); err != nil {
		return nil, err
	}
	if cfg.SlugMaxAttempts, err = getInt("SLUG_MAX_ATTEMPTS", 1000); err != nil {
		return nil, err
	}
	maxUploadMB, err := getInt("MAX_UPLOAD_MB", 500)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize = int64(maxUploadMB) * 1024 * 1024

	if cfg.AssemblyAIAPIKey == "" {
		return nil, fmt.Errorf("ASSEMBLYAI_API_KEY is required")
	}
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if cfg.MaxPollAttempts <= 0 {
		return nil, fmt.Errorf("MAX_POLL_ATTEMPTS must be positive")
	}
	if cfg.SlugMaxAttempts <= 0 {
		return nil, fmt.Errorf("SLUG_MAX_ATTEMPTS must be positive")
	}
	if cfg.WorkerConcurrency <= 0 {
		return nil, fmt.Errorf("WORKER_CONCURRENCY must be positive")
	}

	return cfg, nil
}

// WebhookURL is the callback the transcription provider should hit, or ""
// when the service is not publicly reachable.
func (c *Config) WebhookURL() string {
	if c.PublicBaseURL == "" {
		return ""
	}
	return c.PublicBaseURL + "/api/v1/webhooks/transcription"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
