package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds runtime configuration derived from env vars or a .env file.
type App struct {
	APIPort     string
	Environment string
	LogLevel    string
	LogEncoding string
	CORSOrigins []string

	DatabaseDriver string
	DatabaseURL    string

	KafkaEnabled bool
	KafkaBrokers string
	KafkaTopic   string

	SchedulerTimezone string

	NewsFeedURL     string
	LLMDefaultModel string
	OutboundTimeout time.Duration

	DeliveryTimeout       time.Duration
	DeliveryRatePerSecond int

	WebhookDedupTTL time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv loads the application configuration from environment variables.
// A .env file in the working directory is loaded first when present; real
// environment variables win over it.
func FromEnv() App {
	_ = godotenv.Load()

	return App{
		APIPort:     getEnv("API_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "json"),
		CORSOrigins: getCORSOrigins(),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		KafkaEnabled: getBool("KAFKA_ENABLED", false),
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "notifier-executions"),

		SchedulerTimezone: getEnv("SCHEDULER_TIMEZONE", "Local"),

		NewsFeedURL:     getEnv("NEWS_FEED_URL", "http://127.0.0.1:4399/v2/ai-news"),
		LLMDefaultModel: getEnv("LLM_DEFAULT_MODEL", "deepseek-chat"),
		OutboundTimeout: getDuration("OUTBOUND_TIMEOUT", 10*time.Second),

		DeliveryTimeout:       getDuration("DELIVERY_TIMEOUT", 30*time.Second),
		DeliveryRatePerSecond: getInt("DELIVERY_RATE_PER_SECOND", 5),

		WebhookDedupTTL: getDuration("WEBHOOK_DEDUP_TTL", 10*time.Minute),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// Brokers splits KafkaBrokers into addresses.
func (a App) Brokers() []string {
	return splitList(a.KafkaBrokers)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

// getCORSOrigins parses CORS_ORIGINS as a comma-separated list, "*" when unset.
func getCORSOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{"*"}
	}
	return splitList(raw)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
