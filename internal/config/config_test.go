package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/garnizeh/polls/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Addr:            ":8080",
		SessionSecret:   "strongsecret",
		APITimeout:      5 * time.Second,
		DatabasePath:    "polls.db",
		SessionDuration: time.Hour,
	}
}

func TestValidate_InsecureSecret_FailsWhenNotDevelopment(t *testing.T) {
	t.Setenv("POLLS_ENV", "production")

	cfg := validConfig()
	cfg.SessionSecret = "supersecretkey"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for insecure secret in non-development env")
	}
}

func TestValidate_InsecureSecret_AllowsDevelopment(t *testing.T) {
	t.Setenv("POLLS_ENV", "development")

	cfg := validConfig()
	cfg.SessionSecret = "supersecretkey"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Setenv("POLLS_ENV", "")

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{name: "EmptySecret", mutate: func(c *config.Config) { c.SessionSecret = "" }},
		{name: "EmptyDatabase", mutate: func(c *config.Config) { c.DatabasePath = "" }},
		{name: "BadLogLevel", mutate: func(c *config.Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidate_DefaultsPopulated(t *testing.T) {
	cfg := &config.Config{SessionSecret: "strongsecret", DatabasePath: "x.db"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed unexpectedly: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.APITimeout <= 0 || cfg.SessionDuration <= 0 || cfg.SweepInterval <= 0 || cfg.BcryptCost <= 0 {
		t.Fatalf("defaults not populated: %#v", cfg)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POLLS_ADDR", "")
	t.Setenv("POLLS_SESSION_SECRET", "")
	t.Setenv("POLLS_DATABASE_PATH", "")
	t.Setenv("POLLS_LOG_LEVEL", "")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":8080")
	}
	if cfg.SessionSecret != "supersecretkey" {
		t.Fatalf("unexpected SessionSecret: got %q", cfg.SessionSecret)
	}
	if cfg.DatabasePath != "polls.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "polls.db")
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 15*time.Second)
	}
	if cfg.SessionDuration != 2*time.Hour {
		t.Fatalf("unexpected SessionDuration: got %v want %v", cfg.SessionDuration, 2*time.Hour)
	}
	if !cfg.MigrateOnStart {
		t.Fatalf("expected migrations on start by default")
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("POLLS_DATABASE_PATH", "")
	// godotenv does not override variables that are already set, so make sure
	// the key is absent rather than empty.
	os.Unsetenv("POLLS_DATABASE_PATH")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("POLLS_DATABASE_PATH=fromenv.db\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DatabasePath != "fromenv.db" {
		t.Fatalf("expected .env value, got %q", cfg.DatabasePath)
	}
	os.Unsetenv("POLLS_DATABASE_PATH")
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Chdir(t.TempDir())
	f, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	f.Close()

	content := []byte("addr: \":9090\"\nsession_secret: \"filekey\"\ntimeout: \"30s\"\ndatabase_path: \"test.db\"\nsession_duration: \"3h\"\nseed_on_start: true\nlog_level: debug\n")
	if err := os.WriteFile(f.Name(), content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":9090")
	}
	if cfg.SessionSecret != "filekey" {
		t.Fatalf("unexpected SessionSecret: got %q want %q", cfg.SessionSecret, "filekey")
	}
	if cfg.DatabasePath != "test.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "test.db")
	}
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 30*time.Second)
	}
	if cfg.SessionDuration != 3*time.Hour {
		t.Fatalf("unexpected SessionDuration: got %v want %v", cfg.SessionDuration, 3*time.Hour)
	}
	if !cfg.SeedOnStart {
		t.Fatalf("expected seed_on_start true")
	}
	lvl, err := config.ParseLevel(cfg.LogLevel)
	if err != nil || lvl != slog.LevelDebug {
		t.Fatalf("unexpected level %v err=%v", lvl, err)
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "bad-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	f.Close()

	if err := os.WriteFile(f.Name(), []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}

	if _, err := config.LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}
