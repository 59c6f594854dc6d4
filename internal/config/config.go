package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultSessionSecret = "supersecretkey"

type Config struct {
	Addr            string        `yaml:"addr"`
	SessionSecret   string        `yaml:"session_secret"`
	APITimeout      time.Duration `yaml:"timeout"`
	DatabasePath    string        `yaml:"database_path"`
	SessionDuration time.Duration `yaml:"session_duration"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
	SeedOnStart     bool          `yaml:"seed_on_start"`
	SecureCookies   bool          `yaml:"secure_cookies"`
	LogLevel        string        `yaml:"log_level"`
}

// LoadConfig builds the configuration from defaults, the environment (a .env
// file in the working directory is loaded first when present) and finally the
// optional YAML file at path.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Addr:            getEnv("POLLS_ADDR", ":8080"),
		SessionSecret:   getEnv("POLLS_SESSION_SECRET", defaultSessionSecret),
		APITimeout:      15 * time.Second,
		DatabasePath:    getEnv("POLLS_DATABASE_PATH", "polls.db"),
		SessionDuration: 2 * time.Hour,
		SweepInterval:   10 * time.Minute,
		BcryptCost:      10,
		MigrateOnStart:  true,
		LogLevel:        getEnv("POLLS_LOG_LEVEL", "info"),
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the configuration and fills zero values with defaults.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session_secret is required")
	}
	if c.SessionSecret == defaultSessionSecret && !IsDevelopment() {
		return errors.New("insecure default session_secret; set POLLS_SESSION_SECRET or POLLS_ENV=development")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.SessionDuration <= 0 {
		c.SessionDuration = 2 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 10 * time.Minute
	}
	if c.BcryptCost <= 0 {
		c.BcryptCost = 10
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// IsDevelopment reports whether POLLS_ENV selects the development profile.
func IsDevelopment() bool {
	return strings.EqualFold(os.Getenv("POLLS_ENV"), "development")
}

// ParseLevel maps a log_level string to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return lvl, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
