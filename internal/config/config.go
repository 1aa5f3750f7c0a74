package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/tatianab/storygraph/internal/store"
)

// Config holds the application configuration.
type Config struct {
	StoryDir     string `env:"STORY_DIR" envDefault:"stories"`
	SaveStore    string `env:"STORY_SAVE_STORE" envDefault:"json"`
	SavePath     string `env:"STORY_SAVE_PATH"`
	MaxSaveSlots int    `env:"STORY_MAX_SAVE_SLOTS" envDefault:"10"`
	DebugLog     string `env:"STORY_DEBUG_LOG"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.SaveStore = strings.ToLower(strings.TrimSpace(cfg.SaveStore))
	switch cfg.SaveStore {
	case store.EngineJSON:
		if cfg.SavePath == "" {
			cfg.SavePath = filepath.Join(".saves", "saves.json")
		}
	case store.EngineSQLite:
		if cfg.SavePath == "" {
			cfg.SavePath = filepath.Join(".saves", "saves.db")
		}
	default:
		return nil, fmt.Errorf("STORY_SAVE_STORE must be %q or %q, got %q", store.EngineJSON, store.EngineSQLite, cfg.SaveStore)
	}
	if cfg.MaxSaveSlots < 1 {
		return nil, fmt.Errorf("STORY_MAX_SAVE_SLOTS must be at least 1, got %d", cfg.MaxSaveSlots)
	}
	if strings.TrimSpace(cfg.StoryDir) == "" {
		return nil, errors.New("STORY_DIR must not be empty")
	}
	return &cfg, nil
}

// RequireGemini reports an error when no Gemini API key is configured.
func (c *Config) RequireGemini() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return nil
}
