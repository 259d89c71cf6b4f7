// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// ErrAPIKeyRequired is returned when OPENAI_API_KEY is not set.
var ErrAPIKeyRequired = errors.New("config: OPENAI_API_KEY is required")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port          int    `env:"PORT, default=8000" json:"port"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" json:"public_base_url,omitempty"`

	// Storage settings
	DataDir string `env:"DATA_DIR, default=/var/lib/frameloop" json:"data_dir"`

	// Provider settings
	OpenAIAPIKey  string `env:"OPENAI_API_KEY, required" json:"-"` // Masked in JSON
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" json:"openai_base_url,omitempty"`
	ChatModel     string `env:"CHAT_MODEL, default=gpt-4.1" json:"chat_model"`
	ImageModel    string `env:"IMAGE_MODEL, default=gpt-image-1" json:"image_model"`
	VisionModel   string `env:"VISION_MODEL, default=gpt-4o" json:"vision_model"`

	// Prompt settings
	PromptMode     string `env:"PROMPT_MODE, default=manual" json:"prompt_mode"`
	ManualPrompt   string `env:"MANUAL_PROMPT, default=a quiet mountain lake at golden hour" json:"manual_prompt"`
	ThemePrompt    string `env:"THEME_PROMPT, default=calm natural landscapes" json:"theme_prompt"`
	Quirkiness     int    `env:"QUIRKINESS, default=1" json:"quirkiness"`
	RefreshSeconds int    `env:"REFRESH_SECONDS, default=300" json:"refresh_seconds"`

	// Encoding settings. Quality 0 picks the encoder's own default.
	VideoEncoder string `env:"VIDEO_ENCODER" json:"video_encoder,omitempty"`
	VideoQuality int    `env:"VIDEO_QUALITY, default=0" json:"video_quality"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		if strings.Contains(err.Error(), "OPENAI_API_KEY") {
			return nil, ErrAPIKeyRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return ErrAPIKeyRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, DataDir: %s, ChatModel: %s, ImageModel: %s, VisionModel: %s, PromptMode: %s, RefreshSeconds: %d, VideoEncoder: %s, VideoQuality: %d, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.DataDir,
		c.ChatModel,
		c.ImageModel,
		c.VisionModel,
		c.PromptMode,
		c.RefreshSeconds,
		c.VideoEncoder,
		c.VideoQuality,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
