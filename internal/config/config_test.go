//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return p
}

func TestLoadConfig(t *testing.T) {
	t.Run("should fail fast without a token", func(t *testing.T) {
		t.Setenv(EnvBotToken, "")
		p := writeConfig(t, "log:\n  level: debug\n")
		_, err := LoadConfig(p, false)
		if err == nil {
			t.Fatal("expected error for missing token")
		}
		if !strings.Contains(err.Error(), EnvBotToken) {
			t.Errorf("error should name %s, got %q", EnvBotToken, err.Error())
		}
	})

	t.Run("should read yaml and apply defaults", func(t *testing.T) {
		t.Setenv(EnvBotToken, "")
		p := writeConfig(t, "bot:\n  token: abc\nconverter:\n  base_url: http://conv:8000/\n  timeout: 30s\n")
		cfg, err := LoadConfig(p, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Bot.Token != "abc" {
			t.Errorf("token = %q", cfg.Bot.Token)
		}
		if cfg.Converter.BaseURL != "http://conv:8000" {
			t.Errorf("base url not trimmed: %q", cfg.Converter.BaseURL)
		}
		if cfg.Converter.Timeout != 30*time.Second {
			t.Errorf("timeout = %v", cfg.Converter.Timeout)
		}
		if cfg.Bot.Workers != 8 || cfg.Log.Level != "info" || cfg.Admin.Port != 9090 {
			t.Errorf("defaults not applied: %+v", cfg)
		}
		if len(cfg.Relay.SupportedExtensions) != 5 {
			t.Errorf("expected default extensions, got %v", cfg.Relay.SupportedExtensions)
		}
		if !cfg.Runtime.Dev {
			t.Error("dev flag not propagated")
		}
	})

	t.Run("env token overrides file and missing file is allowed", func(t *testing.T) {
		t.Setenv(EnvBotToken, "from-env")
		t.Setenv(EnvConverterURL, "https://convert.example")
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Bot.Token != "from-env" {
			t.Errorf("token = %q", cfg.Bot.Token)
		}
		if cfg.Converter.BaseURL != "https://convert.example" {
			t.Errorf("base url = %q", cfg.Converter.BaseURL)
		}
	})

	t.Run("should normalize extensions", func(t *testing.T) {
		t.Setenv(EnvBotToken, "")
		p := writeConfig(t, "bot:\n  token: abc\nrelay:\n  supported_extensions: [EPUB, .Mobi]\n")
		cfg, err := LoadConfig(p, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{".epub", ".mobi"}
		for i, w := range want {
			if cfg.Relay.SupportedExtensions[i] != w {
				t.Errorf("ext[%d] = %q, want %q", i, cfg.Relay.SupportedExtensions[i], w)
			}
		}
	})

	t.Run("should reject a non-http converter url", func(t *testing.T) {
		t.Setenv(EnvBotToken, "abc")
		p := writeConfig(t, "converter:\n  base_url: ftp://nope\n")
		if _, err := LoadConfig(p, false); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("should reject malformed yaml", func(t *testing.T) {
		p := writeConfig(t, "bot: [unclosed\n")
		if _, err := LoadConfig(p, false); err == nil {
			t.Fatal("expected parse error")
		}
	})
}
