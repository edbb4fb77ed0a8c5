// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token              string `yaml:"token"`
	Workers            int    `yaml:"workers"` // update dispatch workers
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	Debug              bool   `yaml:"debug"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ConverterConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 keeps the http.Client default
}

type RelayConfig struct {
	SupportedExtensions []string `yaml:"supported_extensions"`
	Language            string   `yaml:"language"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Redis     RedisConfig     `yaml:"redis"`
	Converter ConverterConfig `yaml:"converter"`
	Relay     RelayConfig     `yaml:"relay"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	EnvBotToken     = "TELEGRAM_BOT_TOKEN"
	EnvConverterURL = "CONVERTER_BASE_URL"
	EnvRedisURL     = "REDIS_URL"
	EnvAdminSecret  = "ADMIN_JWT_SECRET"
	EnvAdminPort    = "ADMIN_PORT"
)

var defaultExtensions = []string{".mobi", ".azw", ".azw3", ".epub", ".pdf"}

// LoadConfig reads the YAML file at path, applies environment overrides and defaults,
// and validates the result. A missing file is tolerated so the bot can run from env only.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// env-only mode
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg, os.LookupEnv)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBotToken); ok && strings.TrimSpace(v) != "" {
		cfg.Bot.Token = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvConverterURL); ok && v != "" {
		cfg.Converter.BaseURL = v
	}
	if v, ok := lookup(EnvRedisURL); ok && v != "" {
		cfg.Redis.URL = v
	}
	if v, ok := lookup(EnvAdminSecret); ok && v != "" {
		cfg.Admin.JWTSecret = v
	}
	if v, ok := lookup(EnvAdminPort); ok {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Admin.Port = p
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 9090
	}
	if cfg.Converter.BaseURL == "" {
		cfg.Converter.BaseURL = "http://localhost:8000"
	}
	cfg.Converter.BaseURL = strings.TrimRight(cfg.Converter.BaseURL, "/")
	if cfg.Relay.SupportedExtensions == nil {
		cfg.Relay.SupportedExtensions = append([]string(nil), defaultExtensions...)
	}
	for i, ext := range cfg.Relay.SupportedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Relay.SupportedExtensions[i] = ext
	}
	if cfg.Relay.Language == "" {
		cfg.Relay.Language = "en"
	}
}

// Validate fails fast on settings the bot cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return fmt.Errorf("bot.token is required (set %s or bot.token in the config file)", EnvBotToken)
	}
	if !strings.HasPrefix(c.Converter.BaseURL, "http://") && !strings.HasPrefix(c.Converter.BaseURL, "https://") {
		return fmt.Errorf("converter.base_url must be an http(s) URL, got %q", c.Converter.BaseURL)
	}
	if c.Converter.Timeout < 0 {
		return errors.New("converter.timeout must not be negative")
	}
	if c.Bot.RateLimitPerMinute < 0 {
		return errors.New("bot.rate_limit_per_minute must not be negative")
	}
	if c.Admin.Port < 0 || c.Admin.Port > 65535 {
		return fmt.Errorf("admin.port out of range: %d", c.Admin.Port)
	}
	return nil
}
