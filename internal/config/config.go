package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Registration policies applied when a credential record already exists.
const (
	PolicyOverwrite = "overwrite"
	PolicyReject    = "reject"
)

type Config struct {
	Server struct {
		Host         string        `yaml:"host"`
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
		CORSOrigins  []string      `yaml:"cors_allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Path      string `yaml:"path"`
		QueueSize int    `yaml:"queue_size"`
	} `yaml:"database"`
	Redis struct {
		URL     string `yaml:"url"`
		Channel string `yaml:"channel"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret          string        `yaml:"jwt_secret"`
		JWTExpiration      time.Duration `yaml:"jwt_expiration"`
		RegistrationPolicy string        `yaml:"registration_policy"`
	} `yaml:"auth"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration used before any file or
// environment overrides are applied.
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = "8000"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.IdleTimeout = 60 * time.Second
	cfg.Server.CORSOrigins = []string{"*"}

	cfg.Database.Path = "./data/event_agenda.db"
	cfg.Database.QueueSize = 64

	cfg.Redis.Channel = "agenda_events"

	cfg.Auth.JWTExpiration = 24 * time.Hour
	cfg.Auth.RegistrationPolicy = PolicyOverwrite

	cfg.LogLevel = "info"

	return cfg
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML file named by CONFIG_FILE, and finally the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	// Server configuration
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvAsDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}

	// Database configuration
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.Database.QueueSize = getEnvAsInt("QUEUE_SIZE", c.Database.QueueSize)

	// Notifications
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.Channel = getEnv("REDIS_CHANNEL", c.Redis.Channel)

	// Auth
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTExpiration = getEnvAsDuration("JWT_EXPIRATION", c.Auth.JWTExpiration)
	c.Auth.RegistrationPolicy = strings.ToLower(getEnv("REGISTRATION_POLICY", c.Auth.RegistrationPolicy))

	// Logging
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.Auth.RegistrationPolicy {
	case PolicyOverwrite, PolicyReject:
	default:
		return fmt.Errorf("invalid REGISTRATION_POLICY %q (expected %q or %q)",
			c.Auth.RegistrationPolicy, PolicyOverwrite, PolicyReject)
	}
	if c.Database.Path == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.Database.QueueSize < 0 {
		return fmt.Errorf("QUEUE_SIZE must not be negative, got %d", c.Database.QueueSize)
	}
	if c.Auth.JWTExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive, got %s", c.Auth.JWTExpiration)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsInt(key string, defaultValue int) int {
	val := getEnv(key, strconv.Itoa(defaultValue))
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}
