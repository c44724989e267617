// Package config loads application configuration from config files and
// environment variables and wires the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the root configuration for the enrichment CLI.
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Lyzr     LyzrConfig     `mapstructure:"lyzr" yaml:"lyzr"`
	Gemini   GeminiConfig   `mapstructure:"gemini" yaml:"gemini"`
	Notion   NotionConfig   `mapstructure:"notion" yaml:"notion"`
	Fetch    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// StoreConfig selects and configures the run store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is the sqlite database file.
	Path string `mapstructure:"path" yaml:"path"`
	// DSN is the postgres connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// LyzrConfig configures the Lyzr agent platform client.
type LyzrConfig struct {
	APIKey  string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string  `mapstructure:"base_url" yaml:"base_url"`
	AgentID string  `mapstructure:"agent_id" yaml:"agent_id"`
	RPS     float64 `mapstructure:"rps" yaml:"rps"`
}

// GeminiConfig configures the Gemini agent backend.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model" yaml:"model"`
}

// NotionConfig configures the optional Notion record sink.
type NotionConfig struct {
	Token      string `mapstructure:"token" yaml:"token"`
	DatabaseID string `mapstructure:"database_id" yaml:"database_id"`
}

// FetchConfig controls source acquisition.
type FetchConfig struct {
	TimeoutSecs int     `mapstructure:"timeout_secs" yaml:"timeout_secs"`
	MaxRetries  int     `mapstructure:"max_retries" yaml:"max_retries"`
	UserAgent   string  `mapstructure:"user_agent" yaml:"user_agent"`
	RPS         float64 `mapstructure:"rps" yaml:"rps"`
}

// ServerConfig configures the HTTP serve mode.
type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// PipelineConfig controls enrichment run behavior.
type PipelineConfig struct {
	// Backend is the agent platform, "lyzr" or "gemini".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Prompt is the default enrichment instruction sent to the agent.
	Prompt string `mapstructure:"prompt" yaml:"prompt"`
	// MaxUploadBytes caps the size of a source file accepted for upload.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

const defaultPrompt = "Enrich every contact in the attached CSV. For each row return name, company, " +
	"estimated annual revenue, sector, decision maker status, job title, and a confidence level. " +
	"Respond with JSON containing an enriched_data array and a summary object."

// Load reads configuration from config.yaml in the working directory plus
// ENRICH_-prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.enrich")

	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", "enrich.db")
	v.SetDefault("lyzr.base_url", "https://agent-prod.studio.lyzr.ai")
	v.SetDefault("lyzr.rps", 2.0)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "enrich-cli/1.0")
	v.SetDefault("fetch.rps", 10.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("pipeline.backend", "lyzr")
	v.SetDefault("pipeline.prompt", defaultPrompt)
	v.SetDefault("pipeline.max_upload_bytes", 10<<20)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// InitLogger builds a zap logger per the log config and installs it as the
// process-wide global.
func InitLogger(cfg LogConfig) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrapf(err, "config: parse log level %q", cfg.Level)
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
