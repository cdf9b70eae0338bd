// Package config loads musicbridge settings from a TOML file, then applies
// MUSICBRIDGE_* environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const envPrefix = "MUSICBRIDGE_"

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Player  PlayerConfig  `toml:"player"`
	Browser BrowserConfig `toml:"browser"`
}

// ServerConfig holds HTTP and logging settings.
type ServerConfig struct {
	Listen      string   `toml:"listen"`
	LogLevel    string   `toml:"log_level"`
	LogFormat   string   `toml:"log_format"` // json|console
	CORSOrigins []string `toml:"cors_origins"`

	// RequestTimeoutMS bounds one whole action, across all of its automation calls.
	RequestTimeoutMS int64 `toml:"request_timeout_ms"`
}

// PlayerConfig describes the media application being automated.
type PlayerConfig struct {
	App       string `toml:"app"`
	TimeoutMS int64  `toml:"timeout_ms"`
}

// BrowserConfig describes where web searches are opened.
type BrowserConfig struct {
	Name        string `toml:"name"`
	SiteName    string `toml:"site_name"`
	SearchURL   string `toml:"search_url"`
	SearchParam string `toml:"search_param"`
}

// RequestTimeout returns the bound applied to one whole action.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMS) * time.Millisecond
}

// Timeout returns the bound applied to every automation call.
func (p PlayerConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:           "127.0.0.1:5000",
			LogLevel:         "info",
			LogFormat:        "json",
			CORSOrigins:      []string{"*"},
			RequestTimeoutMS: 30000,
		},
		Player: PlayerConfig{
			App:       "Music",
			TimeoutMS: 5000,
		},
		Browser: BrowserConfig{
			Name:        "Brave Browser",
			SiteName:    "YouTube",
			SearchURL:   "https://www.youtube.com/results",
			SearchParam: "search_query",
		},
	}
}

// Load reads the config file at path over the defaults and applies environment
// overrides. An empty path means DefaultConfigPath, which may be absent; an
// explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return Config{}, errors.New("config path is a directory")
	case err == nil:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file, defaults only
	default:
		return Config{}, err
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "musicbridge", "config.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "musicbridge", "config.toml"), nil
}

// Validate checks the settings that would otherwise fail at request time.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return errors.New("server.listen is required")
	}
	if c.Server.RequestTimeoutMS <= 0 {
		return fmt.Errorf("server.request_timeout_ms must be positive, got %d", c.Server.RequestTimeoutMS)
	}
	if strings.TrimSpace(c.Player.App) == "" {
		return errors.New("player.app is required")
	}
	if c.Player.TimeoutMS <= 0 {
		return fmt.Errorf("player.timeout_ms must be positive, got %d", c.Player.TimeoutMS)
	}
	if strings.TrimSpace(c.Browser.Name) == "" {
		return errors.New("browser.name is required")
	}
	u, err := url.Parse(c.Browser.SearchURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("browser.search_url must be an absolute URL, got %q", c.Browser.SearchURL)
	}
	if strings.TrimSpace(c.Browser.SearchParam) == "" {
		return errors.New("browser.search_param is required")
	}
	return nil
}

// Write encodes the config as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	str("LISTEN", &cfg.Server.Listen)
	str("LOG_LEVEL", &cfg.Server.LogLevel)
	str("LOG_FORMAT", &cfg.Server.LogFormat)
	str("APP", &cfg.Player.App)
	str("BROWSER", &cfg.Browser.Name)
	str("SEARCH_URL", &cfg.Browser.SearchURL)

	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}
	if err := millis(lookup, "TIMEOUT_MS", &cfg.Player.TimeoutMS); err != nil {
		return err
	}
	return millis(lookup, "REQUEST_TIMEOUT_MS", &cfg.Server.RequestTimeoutMS)
}

func millis(lookup func(string) (string, bool), key string, dst *int64) error {
	v, ok := lookup(envPrefix + key)
	if !ok || v == "" {
		return nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = ms
	return nil
}
