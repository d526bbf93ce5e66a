// Package config loads runtime settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// Store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config is the full runtime configuration.
type Config struct {
	Slack        SlackConfig  `yaml:"slack"`
	Server       ServerConfig `yaml:"server"`
	Store        StoreConfig  `yaml:"store"`
	CalendarPath string       `yaml:"calendar_path"`
	ViewerSecret string       `yaml:"viewer_secret"`
	LogLevel     string       `yaml:"log_level"`
	// Welcome posts an introduction to the directory channel on connect.
	Welcome bool `yaml:"welcome"`
}

type SlackConfig struct {
	Token         string `yaml:"token"`
	AppToken      string `yaml:"app_token"`
	SigningSecret string `yaml:"signing_secret"`
	Channel       string `yaml:"channel"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	PublicURL string `yaml:"public_url"`
}

type StoreConfig struct {
	Driver       string `yaml:"driver"`
	StatePath    string `yaml:"state_path"`
	DatabasePath string `yaml:"database_path"`
	Backup       bool   `yaml:"backup"`
}

// Default returns the configuration used before any file or environment
// override is applied.
func Default() Config {
	return Config{
		Slack:    SlackConfig{Channel: "general"},
		Server:   ServerConfig{Port: "8080"},
		Store:    StoreConfig{Driver: DriverJSON, StatePath: "data/state.json", DatabasePath: "birthday-bot.db"},
		LogLevel: "info",
		Welcome:  true,
	}
}

// Load reads the YAML file at path, if path is non-empty, over the
// defaults and then applies environment overrides read through getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("%w: config file %s not found", domain.ErrConfiguration, path)
			}
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Slack.Token, "SLACK_TOKEN")
	set(&c.Slack.AppToken, "SLACK_APP_TOKEN")
	set(&c.Slack.SigningSecret, "SLACK_SIGNING_SECRET")
	set(&c.Slack.Channel, "SLACK_CHANNEL")
	set(&c.Server.Port, "PORT")
	set(&c.Server.PublicURL, "PUBLIC_URL")
	set(&c.Store.Driver, "STORE_DRIVER")
	set(&c.Store.StatePath, "STATE_PATH")
	set(&c.Store.DatabasePath, "DATABASE_PATH")
	set(&c.CalendarPath, "CALENDAR_PATH")
	set(&c.ViewerSecret, "VIEWER_SECRET")
	set(&c.LogLevel, "LOG_LEVEL")

	if v := getenv("WELCOME_MESSAGE"); v != "" {
		welcome, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: WELCOME_MESSAGE: %v", domain.ErrConfiguration, err)
		}
		c.Welcome = welcome
	}
	return nil
}

// Validate reports missing or contradictory settings.
func (c Config) Validate() error {
	var errs []error
	if c.Slack.Token == "" {
		errs = append(errs, errors.New("slack token is required (SLACK_TOKEN)"))
	}
	if c.Slack.AppToken == "" && c.Slack.SigningSecret == "" {
		errs = append(errs, errors.New("an event source is required: slack app token (SLACK_APP_TOKEN) or signing secret (SLACK_SIGNING_SECRET)"))
	}
	if strings.TrimPrefix(c.Slack.Channel, "#") == "" {
		errs = append(errs, errors.New("slack channel is required (SLACK_CHANNEL)"))
	}
	switch c.Store.Driver {
	case DriverJSON:
		if c.Store.StatePath == "" {
			errs = append(errs, errors.New("store.state_path is required for the json driver"))
		}
	case DriverSQLite:
		if c.Store.DatabasePath == "" {
			errs = append(errs, errors.New("store.database_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// SlogLevel returns the configured log level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
