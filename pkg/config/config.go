package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"reminderd/pkg/reminders"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// Timezone is the IANA zone reminder dates and times are read in. Empty
	// means the process local zone.
	Timezone string `yaml:"timezone"`

	Storage       StorageConfig       `yaml:"storage"`
	Log           LogConfig           `yaml:"log"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type StorageConfig struct {
	// Driver is "sqlite", "file" or "memory".
	Driver      string        `yaml:"driver"`
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type SchedulerConfig struct {
	// PastDue is "skip" or "nudge".
	PastDue        string        `yaml:"past_due"`
	PastDueDelay   time.Duration `yaml:"past_due_delay"`
	ResyncInterval time.Duration `yaml:"resync_interval"`
}

type NotificationsConfig struct {
	// Enabled false behaves like a platform without notification permission.
	Enabled bool `yaml:"enabled"`
	// Calendar enables native recurring triggers.
	Calendar bool `yaml:"calendar"`
}

// Default returns an in-memory default configuration.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:3000",
		Storage: StorageConfig{
			Driver:      "sqlite",
			Path:        "data.db",
			BusyTimeout: 2 * time.Second,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		Scheduler: SchedulerConfig{
			PastDue:        "skip",
			PastDueDelay:   reminders.DefaultPastDueDelay,
			ResyncInterval: 5 * time.Minute,
		},
		Notifications: NotificationsConfig{
			Enabled:  true,
			Calendar: true,
		},
	}
}

// Load reads path (when it exists) over the defaults, then applies a .env
// file and environment overrides.
func Load(path string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" && port != "0" {
		c.Listen = "127.0.0.1:" + port
	}
	if v := os.Getenv("REMINDERD_STORAGE"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("REMINDERD_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REMINDERD_TZ"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("REMINDERD_PAST_DUE"); v != "" {
		c.Scheduler.PastDue = v
	}
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	d := Default()
	if strings.TrimSpace(c.Listen) == "" {
		c.Listen = d.Listen
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = d.Storage.Driver
	}
	if c.Storage.Path == "" && c.Storage.Driver != "memory" {
		c.Storage.Path = d.Storage.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Scheduler.PastDue == "" {
		c.Scheduler.PastDue = d.Scheduler.PastDue
	}
	if c.Scheduler.PastDueDelay <= 0 {
		c.Scheduler.PastDueDelay = d.Scheduler.PastDueDelay
	}
	if c.Scheduler.ResyncInterval <= 0 {
		c.Scheduler.ResyncInterval = d.Scheduler.ResyncInterval
	}
}

func (c *Config) Validate() error {
	if _, err := reminders.ParsePastDuePolicy(c.Scheduler.PastDue); err != nil {
		return fmt.Errorf("scheduler.past_due: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// PastDuePolicy returns the parsed scheduler.past_due value.
func (c *Config) PastDuePolicy() reminders.PastDuePolicy {
	p, _ := reminders.ParsePastDuePolicy(c.Scheduler.PastDue)
	return p
}
