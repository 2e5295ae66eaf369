package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Intent    IntentConfig    `yaml:"intent"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ScheduleConfig configures the periodic surge ranking pass.
type ScheduleConfig struct {
	SurgeInterval string `yaml:"surge_interval"`
	AlertCooldown string `yaml:"alert_cooldown"`
}

// ParseSurgeInterval returns the surge interval as time.Duration.
func (s ScheduleConfig) ParseSurgeInterval() time.Duration {
	d, err := time.ParseDuration(s.SurgeInterval)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// ParseAlertCooldown returns the per-video alert cooldown.
func (s ScheduleConfig) ParseAlertCooldown() time.Duration {
	d, err := time.ParseDuration(s.AlertCooldown)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// RankingConfig configures the ranking windows and limits.
type RankingConfig struct {
	Platform      string  `yaml:"platform"`       // empty means all platforms
	SurgeLimit    int     `yaml:"surge_limit"`    // top N for surge ranking
	SurgeDays     int     `yaml:"surge_days"`     // candidate window
	VelocityDays  int     `yaml:"velocity_days"`  // previous snapshot offset
	LimitPopular  int     `yaml:"limit_popular"`  // featured popular bucket
	LimitRising   int     `yaml:"limit_rising"`   // featured rising bucket
	AlertMinScore float64 `yaml:"alert_min_score"`
}

// EmbeddingConfig configures the text embedding provider used for
// dedup, rerank and intent classification. Optional: when no API key is
// configured every embedding step degrades gracefully.
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// ChatConfig configures the optional trend-chat reply generator.
type ChatConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // "openai" or "anthropic"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// IntentConfig configures query intent classification prototypes.
type IntentConfig struct {
	DefaultLabel string            `yaml:"default_label"`
	Prototypes   []IntentPrototype `yaml:"prototypes"`
}

// IntentPrototype is one labeled intent description.
type IntentPrototype struct {
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./trendix.db"},
		Server:   ServerConfig{Port: 8080},
		Schedule: ScheduleConfig{
			SurgeInterval: "30m",
			AlertCooldown: "6h",
		},
		Ranking: RankingConfig{
			SurgeLimit:    30,
			SurgeDays:     3,
			VelocityDays:  1,
			LimitPopular:  5,
			LimitRising:   5,
			AlertMinScore: 100,
		},
		Embedding: EmbeddingConfig{
			Model: "text-embedding-3-small",
		},
		Chat: ChatConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Intent: IntentConfig{
			DefaultLabel: "general",
			Prototypes: []IntentPrototype{
				{Label: "popular", Description: "what is popular right now, most viewed videos, biggest hits"},
				{Label: "rising", Description: "what is growing fast, gaining views quickly, breakout videos"},
				{Label: "category", Description: "which topics or categories are trending, hot genres"},
				{Label: "general", Description: "general question or chitchat about video trends"},
			},
		},
		Alerts: AlertsConfig{},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRENDIX_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TRENDIX_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
		cfg.Chat.APIKey = v
		cfg.Chat.Enabled = true
		cfg.Chat.Provider = "openai"
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
		cfg.Chat.Enabled = true
		cfg.Chat.Provider = "anthropic"
	}
}
