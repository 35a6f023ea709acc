package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/imje/scheduled-helper/internal/models"
)

// Common holds the settings every run needs, regardless of what triggered it.
type Common struct {
	APIKey         string
	BaseURL        string
	OutputDir      string
	Timeout        time.Duration
	ResponseSchema string
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaAttempts  int
	Search         models.SearchRequest
}

// Fetch configures the one-shot fetch binary.
type Fetch struct {
	Common
}

// Scheduler configures the long-running interval trigger and its HTTP surface.
type Scheduler struct {
	Common
	Interval     time.Duration
	BindAddr     string
	URLCapacity  int
	URLMemoryTTL time.Duration
}

// LoadFetch builds a Fetch config from environment variables and the
// optional search bundle file.
func LoadFetch(searchFile string) (*Fetch, error) {
	common, err := loadCommon(searchFile)
	if err != nil {
		return nil, err
	}
	return &Fetch{Common: *common}, nil
}

// LoadScheduler builds a Scheduler config from environment variables.
func LoadScheduler() (*Scheduler, error) {
	common, err := loadCommon(getEnv("SEARCH_CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}

	c := &Scheduler{
		Common:   *common,
		Interval:     getDuration("SCHEDULER_INTERVAL", "15m"),
		BindAddr:     getEnv("SCHEDULER_BIND_ADDR", "0.0.0.0:8080"),
		URLCapacity:  getInt("SCHEDULER_URL_CAPACITY", 5000),
		URLMemoryTTL: getDuration("SCHEDULER_URL_TTL", "24h"),
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}
	if c.URLCapacity <= 0 {
		return nil, fmt.Errorf("SCHEDULER_URL_CAPACITY must be positive")
	}

	return c, nil
}

func loadCommon(searchFile string) (*Common, error) {
	// A missing .env is normal in CI, where secrets are injected directly.
	_ = godotenv.Load()

	if searchFile == "" {
		searchFile = getEnv("SEARCH_CONFIG_FILE", "")
	}
	search, err := LoadSearch(searchFile)
	if err != nil {
		return nil, err
	}

	c := &Common{
		APIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:        strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		OutputDir:      getEnv("OUTPUT_DIR", "."),
		Timeout:        getDuration("SEARCH_TIMEOUT", "2m"),
		ResponseSchema: getEnv("SEARCH_RESPONSE_SCHEMA", ""),
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "news_runs"),
		KafkaAttempts:  getInt("KAFKA_MAX_ATTEMPTS", 3),
		Search:         search,
	}

	if c.Timeout <= 0 {
		return nil, fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.KafkaAttempts <= 0 {
		return nil, fmt.Errorf("KAFKA_MAX_ATTEMPTS must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, fallback)); err == nil {
		return d
	}
	d, err := time.ParseDuration(fallback)
	if err != nil {
		panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, err))
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
