// Package config loads runtime settings from .env, an optional YAML file and
// the process environment, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env              string        `yaml:"env"`
	Port             string        `yaml:"port"`
	DatabaseURL      string        `yaml:"database_url"`
	StoreDriver      string        `yaml:"store_driver"`
	JWTSecret        string        `yaml:"jwt_secret"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
	RedisAddr        string        `yaml:"redis_addr"`
	ScheduleCacheTTL time.Duration `yaml:"schedule_cache_ttl"`
	SMTPHost         string        `yaml:"smtp_host"`
	SMTPPort         int           `yaml:"smtp_port"`
	EmailUser        string        `yaml:"email_user"`
	EmailPass        string        `yaml:"email_pass"`
	ReminderCron     string        `yaml:"reminder_cron"`
	Departments      []string      `yaml:"departments"`
	CORSOrigins      string        `yaml:"cors_origins"`
}

func defaults() *Config {
	return &Config{
		Env:              "development",
		Port:             "8000",
		StoreDriver:      DriverPostgres,
		TokenTTL:         72 * time.Hour,
		ScheduleCacheTTL: 5 * time.Minute,
		SMTPPort:         587,
		ReminderCron:     "0 7 * * *",
		Departments:      []string{"CSE", "ECE", "EEE", "MECH", "CIVIL"},
		CORSOrigins:      "*",
	}
}

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("ENV", &c.Env)
	str("PORT", &c.Port)
	str("DATABASE_URL", &c.DatabaseURL)
	str("STORE_DRIVER", &c.StoreDriver)
	str("JWT_SECRET", &c.JWTSecret)
	str("REDIS_ADDR", &c.RedisAddr)
	str("SMTP_HOST", &c.SMTPHost)
	str("EMAIL_USER", &c.EmailUser)
	str("EMAIL_PASS", &c.EmailPass)
	str("REMINDER_CRON", &c.ReminderCron)
	str("CORS_ORIGINS", &c.CORSOrigins)

	for key, dst := range map[string]*time.Duration{
		"TOKEN_TTL":          &c.TokenTTL,
		"SCHEDULE_CACHE_TTL": &c.ScheduleCacheTTL,
	} {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	if v, ok := lookup("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		c.SMTPPort = port
	}
	if v, ok := lookup("DEPARTMENTS"); ok && v != "" {
		c.Departments = nil
		for _, d := range strings.Split(v, ",") {
			if d = strings.ToUpper(strings.TrimSpace(d)); d != "" {
				c.Departments = append(c.Departments, d)
			}
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required but not set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.JWTSecret = "dev_secret_key"
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if len(c.Departments) == 0 {
		return fmt.Errorf("DEPARTMENTS must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// MailEnabled reports whether SMTP settings are complete.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.EmailUser != ""
}
