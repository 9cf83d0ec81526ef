package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var allKeys = []string{
	"API_PORT", "ENVIRONMENT", "LOG_LEVEL", "LOG_ENCODING", "CORS_ORIGINS",
	"DATABASE_DRIVER", "DATABASE_URL",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"SCHEDULER_TIMEZONE", "NEWS_FEED_URL", "LLM_DEFAULT_MODEL", "OUTBOUND_TIMEOUT",
	"DELIVERY_TIMEOUT", "DELIVERY_RATE_PER_SECOND", "WEBHOOK_DEDUP_TTL", "SHUTDOWN_TIMEOUT",
}

// clearEnv blanks every variable FromEnv reads; t.Setenv restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	// Arrange
	clearEnv(t)

	// Act
	cfg := FromEnv()

	// Assert
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogEncoding)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "localhost:9092", cfg.KafkaBrokers)
	assert.Equal(t, "notifier-executions", cfg.KafkaTopic)
	assert.Equal(t, "Local", cfg.SchedulerTimezone)
	assert.Equal(t, "http://127.0.0.1:4399/v2/ai-news", cfg.NewsFeedURL)
	assert.Equal(t, "deepseek-chat", cfg.LLMDefaultModel)
	assert.Equal(t, 10*time.Second, cfg.OutboundTimeout)
	assert.Equal(t, 30*time.Second, cfg.DeliveryTimeout)
	assert.Equal(t, 5, cfg.DeliveryRatePerSecond)
	assert.Equal(t, 10*time.Minute, cfg.WebhookDedupTTL)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnv_Overrides(t *testing.T) {
	// Arrange
	clearEnv(t)
	t.Setenv("API_PORT", "9000")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_ENCODING", "console")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://ops.example.com")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_URL", "user:pass@tcp(localhost:3306)/notifier?parseTime=true")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")
	t.Setenv("KAFKA_TOPIC", "feishu-logs")
	t.Setenv("SCHEDULER_TIMEZONE", "Asia/Shanghai")
	t.Setenv("NEWS_FEED_URL", "http://news.internal/v2/ai-news")
	t.Setenv("LLM_DEFAULT_MODEL", "qwen-max")
	t.Setenv("OUTBOUND_TIMEOUT", "3s")
	t.Setenv("DELIVERY_TIMEOUT", "45s")
	t.Setenv("DELIVERY_RATE_PER_SECOND", "2")
	t.Setenv("WEBHOOK_DEDUP_TTL", "1h")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	// Act
	cfg := FromEnv()

	// Assert
	assert.Equal(t, "9000", cfg.APIPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogEncoding)
	assert.Equal(t, []string{"http://localhost:3000", "https://ops.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "mysql", cfg.DatabaseDriver)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/notifier?parseTime=true", cfg.DatabaseURL)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "feishu-logs", cfg.KafkaTopic)
	assert.Equal(t, "Asia/Shanghai", cfg.SchedulerTimezone)
	assert.Equal(t, "http://news.internal/v2/ai-news", cfg.NewsFeedURL)
	assert.Equal(t, "qwen-max", cfg.LLMDefaultModel)
	assert.Equal(t, 3*time.Second, cfg.OutboundTimeout)
	assert.Equal(t, 45*time.Second, cfg.DeliveryTimeout)
	assert.Equal(t, 2, cfg.DeliveryRatePerSecond)
	assert.Equal(t, time.Hour, cfg.WebhookDedupTTL)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnv_InvalidTypedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAFKA_ENABLED", "sometimes")
	t.Setenv("DELIVERY_RATE_PER_SECOND", "-3")
	t.Setenv("OUTBOUND_TIMEOUT", "soon")
	t.Setenv("WEBHOOK_DEDUP_TTL", "0s")

	cfg := FromEnv()

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, 5, cfg.DeliveryRatePerSecond)
	assert.Equal(t, 10*time.Second, cfg.OutboundTimeout)
	assert.Equal(t, 10*time.Minute, cfg.WebhookDedupTTL)
}

func TestGetCORSOrigins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"unset is wildcard", "", []string{"*"}},
		{"trims entries", " http://a.local , http://b.local ", []string{"http://a.local", "http://b.local"}},
		{"whitespace only is empty", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CORS_ORIGINS", tt.raw)

			assert.Equal(t, tt.want, getCORSOrigins())
		})
	}
}

func TestBrokers(t *testing.T) {
	cfg := App{KafkaBrokers: "kafka1:9092, ,kafka2:9092"}

	assert.Equal(t, []string{"kafka1:9092", "kafka2:9092"}, cfg.Brokers())
}
