package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeOut  = 60
	DefaultDataDir  = "~/.local/share/happenr"
	DefaultLogLevel = "info"
)

// Config holds the settings shared by every happenr command.
type Config struct {
	Login     string `yaml:"login"`
	Password  string `yaml:"password"`
	TimeOut   int    `yaml:"timeout"` // seconds, 0 or less disables it
	UserAgent string `yaml:"user_agent"`
	Language  string `yaml:"language"`
	ChannelID string `yaml:"channel_id"`
	DataDir   string `yaml:"data_dir"`
	LogLevel  string `yaml:"log_level"`
	TimeZone  string `yaml:"timezone"` // IANA name, empty means local time
}

// DefaultPath returns ~/.config/happenr/config.yaml, or the empty string
// when the home directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "happenr", "config.yaml")
}

// Load reads the YAML file at path and applies HAPPENR_* environment
// overrides on top. A missing file is only an error when required is set.
func Load(path string, required bool) (*Config, error) {
	c := &Config{TimeOut: DefaultTimeOut}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("parse yaml %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	// Defaults
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	return c, nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.Login, "HAPPENR_LOGIN")
	overrideString(&c.Password, "HAPPENR_PASSWORD")
	overrideString(&c.UserAgent, "HAPPENR_USER_AGENT")
	overrideString(&c.Language, "HAPPENR_LANGUAGE")
	overrideString(&c.ChannelID, "HAPPENR_CHANNEL_ID")
	overrideString(&c.DataDir, "HAPPENR_DATA_DIR")
	overrideString(&c.LogLevel, "HAPPENR_LOG_LEVEL")
	overrideString(&c.TimeZone, "HAPPENR_TIMEZONE")

	if s := os.Getenv("HAPPENR_TIMEOUT"); s != "" {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid HAPPENR_TIMEOUT %q: must be whole seconds", s)
		}
		c.TimeOut = n
	}

	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports missing credentials.
func (c *Config) Validate() error {
	if c.Login == "" {
		return errors.New("login is required (config login, HAPPENR_LOGIN or --login)")
	}
	if c.Password == "" {
		return errors.New("password is required (config password, HAPPENR_PASSWORD or --password)")
	}
	return nil
}

// Location resolves TimeZone. An empty name is the local time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
