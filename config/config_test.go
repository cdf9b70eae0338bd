package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestLoadConfig(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	data := []byte("" +
		"[server]\n" +
		"listen = \"0.0.0.0:5001\"\n" +
		"cors_origins = [\"http://localhost:3000\"]\n" +
		"\n" +
		"[player]\n" +
		"timeout_ms = 2500\n" +
		"\n" +
		"[browser]\n" +
		"name = \"Safari\"\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Listen != "0.0.0.0:5001" {
		t.Fatalf("expected listen from file, got %q", cfg.Server.Listen)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("expected cors origins from file, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Player.Timeout() != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s timeout, got %s", cfg.Player.Timeout())
	}
	if cfg.Browser.Name != "Safari" {
		t.Fatalf("expected browser from file, got %q", cfg.Browser.Name)
	}
	// untouched keys keep their defaults
	if cfg.Player.App != "Music" || cfg.Browser.SearchParam != "search_query" {
		t.Fatalf("expected defaults for unset keys, got %+v", cfg)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Listen != Default().Server.Listen {
		t.Fatalf("expected default listen, got %q", cfg.Server.Listen)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadDirectory(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nlisten = "), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MUSICBRIDGE_LISTEN", ":6000")
	t.Setenv("MUSICBRIDGE_APP", "iTunes")
	t.Setenv("MUSICBRIDGE_TIMEOUT_MS", "1200")
	t.Setenv("MUSICBRIDGE_CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Listen != ":6000" || cfg.Player.App != "iTunes" || cfg.Player.TimeoutMS != 1200 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if strings.Join(cfg.Server.CORSOrigins, ",") != "http://a.test,http://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.Server.CORSOrigins)
	}
}

func TestRequestTimeout(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.RequestTimeout() != 30*time.Second {
		t.Fatalf("expected 30s default request timeout, got %s", cfg.Server.RequestTimeout())
	}

	t.Setenv("MUSICBRIDGE_REQUEST_TIMEOUT_MS", "8000")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.RequestTimeout() != 8*time.Second {
		t.Fatalf("expected env request timeout, got %s", cfg.Server.RequestTimeout())
	}

	t.Setenv("MUSICBRIDGE_REQUEST_TIMEOUT_MS", "later")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid request timeout")
	}
}

func TestEnvOverrideInvalidTimeout(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MUSICBRIDGE_TIMEOUT_MS", "soon")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Server.Listen = "" }},
		{"empty app", func(c *Config) { c.Player.App = " " }},
		{"zero timeout", func(c *Config) { c.Player.TimeoutMS = 0 }},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeoutMS = 0 }},
		{"empty browser", func(c *Config) { c.Browser.Name = "" }},
		{"relative search url", func(c *Config) { c.Browser.SearchURL = "/results" }},
		{"empty search param", func(c *Config) { c.Browser.SearchParam = "" }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	var cfg Config
	if _, err := toml.Decode(buf.String(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Browser.SearchURL != Default().Browser.SearchURL {
		t.Fatalf("expected search url to survive encoding, got %q", cfg.Browser.SearchURL)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("default config path: %v", err)
	}
	if path == "" {
		t.Fatalf("expected path")
	}
}
