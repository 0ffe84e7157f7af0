package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                int           `yaml:"port"`
	DatabaseURL         string        `yaml:"database_url"`
	NatsURL             string        `yaml:"nats_url"`
	LogLevel            string        `yaml:"log_level"`
	LogFormat           string        `yaml:"log_format"`
	AuditFlushInterval  time.Duration `yaml:"-"`
	AuditFlushThreshold int           `yaml:"audit_flush_threshold"`
	AuditBufferMax      int           `yaml:"audit_buffer_max"`
	RateLimitRPS        float64       `yaml:"rate_limit_rps"`
	RateLimitBurst      int           `yaml:"rate_limit_burst"`
	SlackBotToken       string        `yaml:"slack_bot_token"`
	SlackAlertChannel   string        `yaml:"slack_alert_channel"`

	// AuditFlushIntervalMS is the file form of AuditFlushInterval.
	AuditFlushIntervalMS int `yaml:"audit_flush_interval_ms"`
}

func defaults() Config {
	return Config{
		Port:                 8700,
		LogLevel:             "info",
		AuditFlushIntervalMS: 5000,
		AuditFlushThreshold:  100,
		AuditBufferMax:       10000,
		RateLimitRPS:         50,
		RateLimitBurst:       100,
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CALLBOARD_CONFIG, and environment variables, in increasing precedence.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CALLBOARD_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = envInt("CALLBOARD_PORT", cfg.Port)
	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.NatsURL = envStr("NATS_URL", cfg.NatsURL)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envStr("LOG_FORMAT", cfg.LogFormat)
	cfg.AuditFlushIntervalMS = envInt("AUDIT_FLUSH_INTERVAL_MS", cfg.AuditFlushIntervalMS)
	cfg.AuditFlushThreshold = envInt("AUDIT_FLUSH_THRESHOLD", cfg.AuditFlushThreshold)
	cfg.AuditBufferMax = envInt("AUDIT_BUFFER_MAX", cfg.AuditBufferMax)
	cfg.RateLimitRPS = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.SlackBotToken = envStr("SLACK_BOT_TOKEN", cfg.SlackBotToken)
	cfg.SlackAlertChannel = envStr("SLACK_ALERT_CHANNEL", cfg.SlackAlertChannel)

	cfg.AuditFlushInterval = time.Duration(cfg.AuditFlushIntervalMS) * time.Millisecond
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AuditFlushIntervalMS <= 0 {
		return fmt.Errorf("audit flush interval must be positive, got %dms", c.AuditFlushIntervalMS)
	}
	if c.AuditFlushThreshold <= 0 {
		return fmt.Errorf("audit flush threshold must be positive, got %d", c.AuditFlushThreshold)
	}
	if c.AuditBufferMax <= 0 {
		return fmt.Errorf("audit buffer max must be positive, got %d", c.AuditBufferMax)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
