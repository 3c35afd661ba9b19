package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	GraphBaseURL      string        `mapstructure:"RXGRAPH_BASE_URL"`
	AdverseBaseURL    string        `mapstructure:"ADVERSE_EVENT_BASE_URL"`
	SourceTimeout     time.Duration `mapstructure:"SOURCE_TIMEOUT"`
	SourceConcurrency int           `mapstructure:"SOURCE_CONCURRENCY"`
	RulesFile         string        `mapstructure:"RULES_FILE"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SOURCE_TIMEOUT", "8s")
	v.SetDefault("SOURCE_CONCURRENCY", 4)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("RXGRAPH_BASE_URL")
	v.BindEnv("ADVERSE_EVENT_BASE_URL")
	v.BindEnv("SOURCE_TIMEOUT")
	v.BindEnv("SOURCE_CONCURRENCY")
	v.BindEnv("RULES_FILE")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. DATABASE_URL is
// optional: without it the audit trail degrades to the local structured log.
// The external interaction source URLs are likewise optional; an unset source
// is simply skipped during checks.
func (c *Config) Validate() error {
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive, got %s", c.SourceTimeout)
	}
	// Per-call source budgets sit inside the 30s request deadline; a larger
	// value would let a single slow source consume the whole request.
	if c.SourceTimeout > 30*time.Second {
		return fmt.Errorf("SOURCE_TIMEOUT must not exceed 30s, got %s", c.SourceTimeout)
	}
	if c.SourceConcurrency < 1 {
		return fmt.Errorf("SOURCE_CONCURRENCY must be at least 1, got %d", c.SourceConcurrency)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.IsProduction() && c.GraphBaseURL == "" && c.AdverseBaseURL == "" {
		return fmt.Errorf("at least one external interaction source must be configured in production")
	}
	return nil
}
