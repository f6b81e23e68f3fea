package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Addr() != "0.0.0.0:8000" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "0.0.0.0:8000")
	}
	if cfg.Auth.RegistrationPolicy != PolicyOverwrite {
		t.Errorf("RegistrationPolicy = %q, want %q", cfg.Auth.RegistrationPolicy, PolicyOverwrite)
	}
	if cfg.Redis.URL != "" {
		t.Errorf("Redis.URL = %q, want empty", cfg.Redis.URL)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	file := filepath.Join(dir, "agenda.yaml")
	content := `
server:
  port: "9100"
  read_timeout: 3s
database:
  path: /tmp/from-file.db
auth:
  registration_policy: reject
`
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", file)
	t.Setenv("DB_PATH", "/tmp/from-env.db")
	t.Setenv("JWT_EXPIRATION", "90m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9100" {
		t.Errorf("Server.Port = %q, want from file", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("Server.ReadTimeout = %s, want 3s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.Path != "/tmp/from-env.db" {
		t.Errorf("Database.Path = %q, env should win", cfg.Database.Path)
	}
	if cfg.Auth.RegistrationPolicy != PolicyReject {
		t.Errorf("RegistrationPolicy = %q, want %q", cfg.Auth.RegistrationPolicy, PolicyReject)
	}
	if cfg.Auth.JWTExpiration != 90*time.Minute {
		t.Errorf("JWTExpiration = %s, want 90m", cfg.Auth.JWTExpiration)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=7001\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	// godotenv sets the process environment; make sure the variable is
	// restored after the test.
	t.Setenv("SERVER_PORT", "")
	os.Unsetenv("SERVER_PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != "7001" {
		t.Errorf("Server.Port = %q, want value from .env", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "Defaults", mutate: func(*Config) {}, wantErr: false},
		{name: "Unknown policy", mutate: func(c *Config) { c.Auth.RegistrationPolicy = "merge" }, wantErr: true},
		{name: "Empty DB path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "Negative queue", mutate: func(c *Config) { c.Database.QueueSize = -1 }, wantErr: true},
		{name: "Zero expiry", mutate: func(c *Config) { c.Auth.JWTExpiration = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) failed: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Chdir(%q) failed: %v", old, err)
		}
	})
}
