// Package config loads Nuance configuration from defaults, an optional YAML file,
// .env files and NUANCE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"nuance/internal/logger"
)

// EnvPrefix is prepended to every environment override (NUANCE_LLM_MODEL, ...).
const EnvPrefix = "NUANCE"

// Supported LLM providers.
var supportedProviders = []string{"openai", "anthropic", "gemini", "mock"}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DialogueConfig configures the interview state machine.
type DialogueConfig struct {
	MaxTurns          int           `mapstructure:"max_turns"`
	Retries           int           `mapstructure:"retries"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	EndPhrases        []string      `mapstructure:"end_phrases"`
	EndSignals        []string      `mapstructure:"end_signals"`
}

// SessionsConfig configures the in-memory session store.
type SessionsConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LLMConfig selects and parameterises the text generation provider.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// CorrectionConfig overrides generation parameters for writing analysis.
type CorrectionConfig struct {
	Temperature float64 `mapstructure:"temperature"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"`
}

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Dialogue   DialogueConfig   `mapstructure:"dialogue"`
	Sessions   SessionsConfig   `mapstructure:"sessions"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Correction CorrectionConfig `mapstructure:"correction"`
	Log        LogConfig        `mapstructure:"log"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.cors_origins", []string{"http://localhost:8080", "http://127.0.0.1:8080"})
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 150*time.Second)

	v.SetDefault("dialogue.max_turns", 5)
	v.SetDefault("dialogue.retries", 1)
	v.SetDefault("dialogue.generation_timeout", 60*time.Second)
	v.SetDefault("dialogue.end_phrases", []string{"结束", "够了", "generate", "可以了", "stop", "finish", "生成文章"})
	v.SetDefault("dialogue.end_signals", []string{"generate", "ready to create", "thank you for sharing"})

	v.SetDefault("sessions.idle_ttl", time.Duration(0))
	v.SetDefault("sessions.sweep_interval", time.Minute)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "openai/gpt-oss-20b")
	v.SetDefault("llm.base_url", "https://api.novita.ai/openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 150)

	v.SetDefault("correction.temperature", 0.3)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults, env binding and config search paths.
// configFile, when non-empty, replaces the search paths.
func New(configFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("nuance")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/nuance")
		}
	}
	return v
}

// LoadDotEnv loads .env files into the process environment. Missing files are ignored
// and variables already set in the environment are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load .env file %s: %w", p, err)
		}
		logger.Debug("Loaded .env file", "path", p)
	}
	return nil
}

// Load reads the config file (if any) and decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.Debug("No config file found, using defaults and environment")
	} else {
		logger.Debug("Config file loaded", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.LLM.APIKey = resolveAPIKey(cfg.LLM)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveAPIKey falls back to provider-specific environment variables when
// llm.api_key is not set. NOVITA_API_KEY is the legacy Novita key name.
func resolveAPIKey(llm LLMConfig) string {
	if llm.APIKey != "" {
		return llm.APIKey
	}

	var candidates []string
	switch strings.ToLower(llm.Provider) {
	case "openai":
		candidates = []string{"NOVITA_API_KEY", "OPENAI_API_KEY"}
	case "anthropic":
		candidates = []string{"ANTHROPIC_API_KEY"}
	case "gemini":
		candidates = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}
	}
	for _, name := range candidates {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// Validate checks value ranges and the provider name.
func (c *Config) Validate() error {
	if c.Dialogue.MaxTurns <= 0 {
		return fmt.Errorf("dialogue.max_turns must be positive, got %d", c.Dialogue.MaxTurns)
	}
	if c.Dialogue.Retries < 0 {
		return fmt.Errorf("dialogue.retries must not be negative, got %d", c.Dialogue.Retries)
	}
	if c.Dialogue.GenerationTimeout < 0 {
		return fmt.Errorf("dialogue.generation_timeout must not be negative")
	}
	if c.Sessions.IdleTTL < 0 {
		return fmt.Errorf("sessions.idle_ttl must not be negative")
	}
	if c.Sessions.IdleTTL > 0 && c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("sessions.sweep_interval must be positive when idle_ttl is set")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	provider := strings.ToLower(c.LLM.Provider)
	for _, p := range supportedProviders {
		if provider == p {
			c.LLM.Provider = provider
			return nil
		}
	}
	return fmt.Errorf("unsupported llm.provider %q (supported: %s)", c.LLM.Provider, strings.Join(supportedProviders, ", "))
}

// Watch re-applies the log level whenever the config file changes.
// It is a no-op when no config file was loaded.
func Watch(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		level := v.GetString("log.level")
		logger.SetLevel(level)
		logger.Info("Config file changed", "path", e.Name, "op", e.Op.String(), "log_level", level)
	})
	v.WatchConfig()
}
