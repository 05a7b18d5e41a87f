// Package config loads application configuration from a YAML file with
// HOOPSIGNAL_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Feed    FeedConfig    `mapstructure:"feed"`
	Slots   []SlotConfig  `mapstructure:"slots"`
	Tracker TrackerConfig `mapstructure:"tracker"`
	Lines   LinesConfig   `mapstructure:"lines"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// FeedConfig configures the upstream in-play API client.
type FeedConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	Token             string  `mapstructure:"token"`
	SportID           string  `mapstructure:"sport_id"`
	LeagueID          string  `mapstructure:"league_id"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// SlotConfig is one named tracking slot.
type SlotConfig struct {
	Name     string   `mapstructure:"name"`
	Enabled  bool     `mapstructure:"enabled"`
	Webhooks []string `mapstructure:"webhooks"`
}

// TrackerConfig configures the event tracker.
type TrackerConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// LinesConfig configures the line resolver cache.
type LinesConfig struct {
	CacheEnabled    bool   `mapstructure:"cache_enabled"`
	RedisAddr       string `mapstructure:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

// TelegramConfig configures the optional Telegram broadcast channel.
type TelegramConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	BotToken          string `mapstructure:"bot_token"`
	ChatID            string `mapstructure:"chat_id"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
}

// NotifyConfig configures notification delivery.
type NotifyConfig struct {
	WebhookTimeoutSeconds int            `mapstructure:"webhook_timeout_seconds"`
	Telegram              TelegramConfig `mapstructure:"telegram"`
}

// KafkaConfig configures the optional Kafka audit stream.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// AuditConfig configures the audit sinks.
type AuditConfig struct {
	CSVEnabled bool        `mapstructure:"csv_enabled"`
	CSVDir     string      `mapstructure:"csv_dir"`
	Kafka      KafkaConfig `mapstructure:"kafka"`
}

// MetricsConfig configures the Prometheus sidecar.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// ServerConfig configures the trigger HTTP server.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file, applying defaults and
// HOOPSIGNAL_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("HOOPSIGNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.sport_id", "18")
	v.SetDefault("feed.timeout_seconds", 10)
	v.SetDefault("feed.max_retries", 3)
	v.SetDefault("feed.retry_delay_seconds", 1)
	v.SetDefault("feed.requests_per_second", 5)

	v.SetDefault("tracker.timezone", "America/New_York")

	v.SetDefault("lines.cache_enabled", false)
	v.SetDefault("lines.redis_addr", "localhost:6379")
	v.SetDefault("lines.cache_ttl_seconds", 30)

	v.SetDefault("notify.webhook_timeout_seconds", 10)
	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.max_retries", 3)
	v.SetDefault("notify.telegram.retry_delay_seconds", 1)

	v.SetDefault("audit.csv_enabled", true)
	v.SetDefault("audit.csv_dir", "data/audit")
	v.SetDefault("audit.kafka.enabled", false)
	v.SetDefault("audit.kafka.topic", "hoopsignal.samples")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", "9090")

	v.SetDefault("server.port", "8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate returns the first configuration violation found.
func (c *Config) Validate() error {
	if c.Feed.BaseURL == "" {
		return errors.New("feed.base_url is required")
	}
	if c.Feed.Token == "" {
		return errors.New("feed.token is required")
	}
	if c.Feed.SportID == "" {
		return errors.New("feed.sport_id is required")
	}

	if len(c.Slots) == 0 {
		return errors.New("at least one slot must be configured")
	}
	seen := make(map[string]bool, len(c.Slots))
	enabled := 0
	for i, slot := range c.Slots {
		if slot.Name == "" {
			return fmt.Errorf("slots[%d].name is required", i)
		}
		if seen[slot.Name] {
			return fmt.Errorf("duplicate slot name %q", slot.Name)
		}
		seen[slot.Name] = true
		if !slot.Enabled {
			continue
		}
		enabled++
		if len(slot.Webhooks) == 0 {
			return fmt.Errorf("slot %q is enabled but has no webhooks", slot.Name)
		}
	}
	if enabled == 0 {
		return errors.New("at least one slot must be enabled")
	}

	if _, err := time.LoadLocation(c.Tracker.Timezone); err != nil {
		return fmt.Errorf("tracker.timezone is invalid: %w", err)
	}

	if c.Lines.CacheEnabled && c.Lines.RedisAddr == "" {
		return errors.New("lines.redis_addr is required when the cache is enabled")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return errors.New("notify.telegram.bot_token is required when telegram is enabled")
		}
		if c.Notify.Telegram.ChatID == "" {
			return errors.New("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Audit.Kafka.Enabled && len(c.Audit.Kafka.Brokers) == 0 {
		return errors.New("audit.kafka.brokers is required when kafka is enabled")
	}
	return nil
}
