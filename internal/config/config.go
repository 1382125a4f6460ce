// Package config loads the service configuration from YAML with environment
// variable expansion and defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Chat     ChatConfig     `yaml:"chat"`
	Security SecurityConfig `yaml:"security"`
	Trace    TraceConfig    `yaml:"trace"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Path to the SQLite database file.
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Provider   string        `yaml:"provider"`
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type ChatConfig struct {
	MaxIterations int           `yaml:"max_iterations"`
	MaxTokens     int           `yaml:"max_tokens"`
	ToolTimeout   time.Duration `yaml:"tool_timeout"`
	ChunkRunes    int           `yaml:"chunk_runes"`
	ChunkDelay    time.Duration `yaml:"chunk_delay"`
}

type SecurityConfig struct {
	MaxInputRunes int   `yaml:"max_input_runes"`
	MaxFileBytes  int64 `yaml:"max_file_bytes"`
}

type TraceConfig struct {
	// MaxSessions bounds the in-memory trace store.
	MaxSessions int `yaml:"max_sessions"`

	// JSONLPath enables the append-only trace file when set.
	JSONLPath string `yaml:"jsonl_path"`

	// RedactContent replaces event content in the JSONL file.
	RedactContent bool `yaml:"redact_content"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the configuration file. Environment variables in the
// file are expanded before parsing, so secrets can stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with every default applied. Used directly when no
// config file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 2 * time.Minute
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "shamay.db"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}
	if cfg.LLM.RetryDelay == 0 {
		cfg.LLM.RetryDelay = time.Second
	}
	if cfg.Chat.MaxIterations == 0 {
		cfg.Chat.MaxIterations = 10
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 4096
	}
	if cfg.Chat.ToolTimeout == 0 {
		cfg.Chat.ToolTimeout = 30 * time.Second
	}
	if cfg.Chat.ChunkRunes == 0 {
		cfg.Chat.ChunkRunes = 50
	}
	if cfg.Chat.ChunkDelay == 0 {
		cfg.Chat.ChunkDelay = 15 * time.Millisecond
	}
	if cfg.Security.MaxInputRunes == 0 {
		cfg.Security.MaxInputRunes = 10000
	}
	if cfg.Security.MaxFileBytes == 0 {
		cfg.Security.MaxFileBytes = 10 << 20
	}
	if cfg.Trace.MaxSessions == 0 {
		cfg.Trace.MaxSessions = 1000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func (c *Config) validate() error {
	if c.LLM.Provider != "anthropic" {
		return fmt.Errorf("llm.provider: unsupported provider %q", c.LLM.Provider)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Chat.MaxIterations < 1 {
		return fmt.Errorf("chat.max_iterations: must be positive")
	}
	return nil
}
