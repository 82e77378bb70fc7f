// Package config loads the chronosec YAML configuration and its environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: CHRONOSEC_SERVER__ADDR sets server.addr.
const EnvPrefix = "CHRONOSEC_"

// Config is the root configuration.
type Config struct {
	Chronosec ChronosecConfig `yaml:"chronosec"`
}

// ChronosecConfig is the project configuration.
type ChronosecConfig struct {
	Server    ServerConfig    `yaml:"server"`
	AI        AIConfig        `yaml:"ai"`
	Intake    IntakeConfig    `yaml:"intake"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Rules     RulesConfig     `yaml:"rules"`
	Output    OutputConfig    `yaml:"output"`
	Progress  ProgressConfig  `yaml:"progress"`
	Session   SessionConfig   `yaml:"session"`
	Deadlines DeadlinesConfig `yaml:"deadlines"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// AIConfig controls the chat-completions backend used for enhancement.
type AIConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxPromptTokens int           `yaml:"max_prompt_tokens"`
}

// IntakeConfig controls the Redis intake queue.
type IntakeConfig struct {
	Enabled          bool        `yaml:"enabled"`
	Redis            RedisConfig `yaml:"redis"`
	DefaultFramework string      `yaml:"default_framework"`
}

// RedisConfig controls Redis input.
type RedisConfig struct {
	Addr          string        `yaml:"addr"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	Key           string        `yaml:"key"`
	DeadLetterKey string        `yaml:"dead_letter_key"`
	BlockTimeout  time.Duration `yaml:"block_timeout"`
}

// PipelineConfig controls pipeline behavior.
type PipelineConfig struct {
	Workers       int           `yaml:"workers"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// RulesConfig controls Sigma classification.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Mapping string `yaml:"mapping"`
	Watch   bool   `yaml:"watch"`
}

// OutputConfig controls where intake timelines are written.
type OutputConfig struct {
	Mode       string                 `yaml:"mode"` // file|http|clickhouse
	File       FileOutputConfig       `yaml:"file"`
	HTTP       HTTPOutputConfig       `yaml:"http"`
	ClickHouse ClickHouseOutputConfig `yaml:"clickhouse"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL      string            `yaml:"url"`
	AlertURL string            `yaml:"alert_url"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// ClickHouseOutputConfig config for ClickHouse HTTP JSONEachRow writes.
type ClickHouseOutputConfig struct {
	URL      string            `yaml:"url"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// ProgressConfig selects the completion store.
type ProgressConfig struct {
	Mode   string              `yaml:"mode"` // memory|redis|sqlite
	Redis  ProgressRedisConfig `yaml:"redis"`
	SQLite SQLiteConfig        `yaml:"sqlite"`
}

// ProgressRedisConfig controls the Redis completion store.
type ProgressRedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// SQLiteConfig controls the sqlite completion store.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig bounds the in-memory timeline cache.
type SessionConfig struct {
	Size int `yaml:"size"`
}

// DeadlinesConfig controls due-soon and overdue notices.
type DeadlinesConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Window   time.Duration `yaml:"window"`
	Cooldown time.Duration `yaml:"cooldown"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	// File receives exported spans. Empty means stdout.
	File string `yaml:"file"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
	Format  string `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Chronosec.Logging = LoggingConfig{Enabled: true, Console: true}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig reads a YAML config file, then layers environment overrides and
// defaults on top. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Chronosec.Logging = LoggingConfig{Enabled: true, Console: true}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Chronosec.AI.APIKey = os.ExpandEnv(cfg.Chronosec.AI.APIKey)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	if len(k.Keys()) == 0 {
		return nil
	}
	if err := k.UnmarshalWithConf("", &c.Chronosec, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return fmt.Errorf("apply environment: %w", err)
	}
	return nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	cs := &c.Chronosec

	if cs.Server.Addr == "" {
		cs.Server.Addr = ":8080"
	}
	if cs.Server.RequestTimeout <= 0 {
		cs.Server.RequestTimeout = 90 * time.Second
	}
	if cs.Server.ReadHeaderTimeout <= 0 {
		cs.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if cs.Server.ShutdownTimeout <= 0 {
		cs.Server.ShutdownTimeout = 10 * time.Second
	}

	if cs.AI.Model == "" {
		cs.AI.Model = "gpt-4o"
	}
	if cs.AI.Timeout <= 0 {
		cs.AI.Timeout = 60 * time.Second
	}
	if cs.AI.MaxPromptTokens <= 0 {
		cs.AI.MaxPromptTokens = 8000
	}

	if cs.Intake.Redis.Addr == "" {
		cs.Intake.Redis.Addr = "127.0.0.1:6379"
	}
	if cs.Intake.Redis.Key == "" {
		cs.Intake.Redis.Key = "chronosec:incidents"
	}
	if cs.Intake.Redis.BlockTimeout <= 0 {
		cs.Intake.Redis.BlockTimeout = 5 * time.Second
	}

	if cs.Pipeline.Workers <= 0 {
		cs.Pipeline.Workers = 4
	}
	if cs.Pipeline.BatchSize <= 0 {
		cs.Pipeline.BatchSize = 100
	}
	if cs.Pipeline.FlushInterval <= 0 {
		cs.Pipeline.FlushInterval = 2 * time.Second
	}

	if cs.Output.Mode == "" {
		cs.Output.Mode = "file"
	}
	if cs.Output.File.Path == "" {
		cs.Output.File.Path = "output/timelines.jsonl"
	}

	if cs.Progress.Mode == "" {
		cs.Progress.Mode = "memory"
	}
	if cs.Progress.SQLite.Path == "" {
		cs.Progress.SQLite.Path = "chronosec.db"
	}

	if cs.Session.Size <= 0 {
		cs.Session.Size = 1024
	}

	if cs.Deadlines.Window <= 0 {
		cs.Deadlines.Window = 24 * time.Hour
	}
	if cs.Deadlines.Cooldown <= 0 {
		cs.Deadlines.Cooldown = time.Hour
	}

	if cs.Telemetry.ServiceName == "" {
		cs.Telemetry.ServiceName = "chronosec"
	}

	if cs.Logging.Level == "" {
		cs.Logging.Level = "info"
	}
}

// Validate rejects settings no component can serve.
func (c *Config) Validate() error {
	cs := &c.Chronosec
	switch strings.ToLower(cs.Output.Mode) {
	case "file", "http", "clickhouse":
	default:
		return fmt.Errorf("unsupported output mode: %s", cs.Output.Mode)
	}
	switch strings.ToLower(cs.Progress.Mode) {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("unsupported progress mode: %s", cs.Progress.Mode)
	}
	if cs.Rules.Enabled && cs.Rules.Path == "" {
		return fmt.Errorf("rules.path is required when rules are enabled")
	}
	if cs.Intake.Enabled {
		if cs.Output.Mode == "http" && cs.Output.HTTP.URL == "" {
			return fmt.Errorf("output.http.url is required for http output")
		}
		if cs.Output.Mode == "clickhouse" && cs.Output.ClickHouse.URL == "" {
			return fmt.Errorf("output.clickhouse.url is required for clickhouse output")
		}
	}
	return nil
}
