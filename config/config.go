// Package config loads assistant configuration from a YAML file with
// environment overrides. A missing file yields usable defaults; secrets
// normally arrive through the environment (or a .env file loaded by the
// CLI), never the config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Model  ModelConfig  `yaml:"model"`
	Canvas CanvasConfig `yaml:"canvas"`
	Chat   ChatConfig   `yaml:"chat"`
	Debug  DebugConfig  `yaml:"debug"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr                  string   `yaml:"addr"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
}

// RequestTimeout returns the per-request deadline.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// ModelConfig selects and tunes the language-model backend.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Endpoint    string  `yaml:"endpoint"`
	Name        string  `yaml:"name"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// CanvasConfig points at the Canvas instance.
type CanvasConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// ChatConfig tunes the orchestration loop.
type ChatConfig struct {
	HistoryWindow int  `yaml:"history_window"`
	MaxToolCalls  int  `yaml:"max_tool_calls"`
	StreamSummary bool `yaml:"stream_summary"`
}

// DebugConfig toggles verbose logging.
type DebugConfig struct {
	LLM   bool `yaml:"llm"`
	Agent bool `yaml:"agent"`
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "canvaspilot.yaml"
	}
	return filepath.Join(home, ".canvaspilot", "config.yaml")
}

// Load reads the config at path, falling back to defaults when the file is
// missing, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config missing")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                  ":8080",
			RequestTimeoutSeconds: 300,
		},
		Model: ModelConfig{
			Provider:    "ollama",
			Name:        "llama3.1",
			Temperature: 0.2,
			MaxTokens:   1024,
		},
		Chat: ChatConfig{
			HistoryWindow: 10,
			MaxToolCalls:  32,
			StreamSummary: true,
		},
	}
}

func (c *Config) applyEnv() {
	setString(&c.Canvas.BaseURL, "CANVAS_API_URL")
	setString(&c.Canvas.Token, "CANVAS_API_KEY")
	setString(&c.Model.Provider, "MODEL_PROVIDER")
	setString(&c.Model.Endpoint, "OLLAMA_ENDPOINT")
	setString(&c.Model.Name, "MODEL_NAME")
	setString(&c.Model.APIKey, "OPENAI_API_KEY")
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if v := os.Getenv("DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Debug.LLM = on
			c.Debug.Agent = on
		}
	}
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// Validate reports configuration problems that should stop the server from
// starting at all.
func (c *Config) Validate() error {
	if c.Model.Provider == "openai" && c.Model.APIKey == "" {
		return errors.New("model.api_key (or OPENAI_API_KEY) is required for the openai provider")
	}
	if c.Canvas.BaseURL == "" || c.Canvas.Token == "" {
		return errors.New("canvas.base_url and canvas.token (or CANVAS_API_URL / CANVAS_API_KEY) are required")
	}
	return nil
}
