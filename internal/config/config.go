package config

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/text/language"
)

// Config holds all application configuration, read from environment
// variables with sensible defaults.
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: openai/gpt-3.5-turbo)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 8000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.7)
// - LLM_SITE_URL: Site URL for HTTP referer header (optional)
// - LLM_APP_NAME: Application name for X-Title header (optional)
//
// Translation Configuration:
// - TARGET_LANGUAGE: BCP 47 tag of the language to translate into (default: zh)
// - CRON_EXPR: Sweep schedule (default: "0 0 * * *")
// - CHUNK_SIZE: Subtitle lines per bulk request (default: 10)
// - SESSION_QUOTA: Messages per remote session before rotation (default: 5)
// - MAX_ATTEMPTS: Attempts per remote call (default: 5)
// - SINGLE_TIMEOUT_SECONDS: First-attempt timeout of single calls (default: 15)
// - BULK_TIMEOUT_SECONDS: First-attempt timeout of bulk calls (default: 30)
//
// Media Directory Configuration:
// - MOVIE_DIR: Movie directory (default: /movies)
// - ANIMATION_DIR: Animation directory (default: /animations)
// - TELEPLAY_DIR: Teleplay directory (default: /teleplays)
// - SHOW_DIR: Show directory (default: /shows)
// - DOCUMENTARY_DIR: Documentary directory (default: /documentaries)
//
// Runtime Configuration:
// - DB_PATH: sqlite database file (default: /config/bulktrans.db)
// - QUEUE_WORKERS: Concurrent translation jobs (default: 1)

type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Media     MediaConfig     `json:"media"`
	Translate TranslateConfig `json:"translate"`
	Runtime   RuntimeConfig   `json:"runtime"`
}

// LLMConfig holds the configuration for the LLM client. Works with any
// OpenAI-compatible provider.
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	SiteURL     string  `json:"site_url"`
	AppName     string  `json:"app_name"`
}

// TranslateConfig holds the translation engine configuration
type TranslateConfig struct {
	TargetLanguage       language.Tag `json:"target_language"`
	CronExpr             string       `json:"cron_expr"`
	ChunkSize            int          `json:"chunk_size"`
	SessionQuota         int          `json:"session_quota"`
	MaxAttempts          int          `json:"max_attempts"`
	SingleTimeoutSeconds int          `json:"single_timeout_seconds"`
	BulkTimeoutSeconds   int          `json:"bulk_timeout_seconds"`
}

// MediaConfig holds the configuration for media directories
type MediaConfig struct {
	MovieDir       string `json:"movie_dir"`
	AnimationDir   string `json:"animation_dir"`
	TeleplayDir    string `json:"teleplay_dir"`
	ShowDir        string `json:"show_dir"`
	DocumentaryDir string `json:"documentary_dir"`
}

func (c MediaConfig) MediaPaths() []string {
	ret := make([]string, 0)
	for _, dir := range []string{c.MovieDir, c.AnimationDir, c.TeleplayDir, c.ShowDir, c.DocumentaryDir} {
		if dir != "" {
			ret = append(ret, dir)
		}
	}
	return ret
}

// RuntimeConfig holds process-level settings
type RuntimeConfig struct {
	DBPath       string `json:"db_path"`
	QueueWorkers int    `json:"queue_workers"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-3.5-turbo"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			SiteURL:     getEnvString("LLM_SITE_URL", ""),
			AppName:     getEnvString("LLM_APP_NAME", ""),
		},
		Media: MediaConfig{
			MovieDir:       getEnvString("MOVIE_DIR", "/movies"),
			AnimationDir:   getEnvString("ANIMATION_DIR", "/animations"),
			TeleplayDir:    getEnvString("TELEPLAY_DIR", "/teleplays"),
			ShowDir:        getEnvString("SHOW_DIR", "/shows"),
			DocumentaryDir: getEnvString("DOCUMENTARY_DIR", "/documentaries"),
		},
		Translate: TranslateConfig{
			TargetLanguage:       getEnvLanguage("TARGET_LANGUAGE", language.Chinese),
			CronExpr:             getEnvString("CRON_EXPR", "0 0 * * *"),
			ChunkSize:            getEnvInt("CHUNK_SIZE", 10),
			SessionQuota:         getEnvInt("SESSION_QUOTA", 5),
			MaxAttempts:          getEnvInt("MAX_ATTEMPTS", 5),
			SingleTimeoutSeconds: getEnvInt("SINGLE_TIMEOUT_SECONDS", 15),
			BulkTimeoutSeconds:   getEnvInt("BULK_TIMEOUT_SECONDS", 30),
		},
		Runtime: RuntimeConfig{
			DBPath:       getEnvString("DB_PATH", "/config/bulktrans.db"),
			QueueWorkers: getEnvInt("QUEUE_WORKERS", 1),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvLanguage(key string, defaultValue language.Tag) language.Tag {
	if value := os.Getenv(key); value != "" {
		if tag, err := language.Parse(value); err == nil {
			return tag
		}
	}
	return defaultValue
}
