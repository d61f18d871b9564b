package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               int      `mapstructure:"port"`
	Environment        string   `mapstructure:"environment"` // development | production
	DatabaseDriver     string   `mapstructure:"database_driver"`
	DatabaseDSN        string   `mapstructure:"database_dsn"`
	JWTSecret          string   `mapstructure:"jwt_secret"`
	SessionTTLHours    int      `mapstructure:"session_ttl_hours"` // token + session lifetime; cookies derive Max-Age from this
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"`

	LoginWindowMin   int `mapstructure:"login_window_min"`   // sliding window for per-address login throttling
	LoginMaxAttempts int `mapstructure:"login_max_attempts"` // attempts allowed inside the window
	LockoutThreshold int `mapstructure:"lockout_threshold"`  // consecutive failures before an account locks
	LockoutMinutes   int `mapstructure:"lockout_minutes"`

	MarketingAPIBaseURL    string `mapstructure:"marketing_api_base_url"`
	MarketingAPIToken      string `mapstructure:"marketing_api_token"`
	MarketingAPITimeoutSec int    `mapstructure:"marketing_api_timeout_sec"`
}

// SessionTTL returns the configured session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// IsProduction reports whether the server runs in a production-like mode
// (controls the Secure flag on auth cookies).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/leadflow/")
	viper.AddConfigPath("$HOME/.leadflow")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("environment", "development")
	viper.SetDefault("database_driver", "sqlite")
	viper.SetDefault("database_dsn", "./leadflow.db")
	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("session_ttl_hours", 168) // 7 days
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("login_window_min", 15)
	viper.SetDefault("login_max_attempts", 10)
	viper.SetDefault("lockout_threshold", 5)
	viper.SetDefault("lockout_minutes", 30)
	viper.SetDefault("marketing_api_base_url", "")
	viper.SetDefault("marketing_api_token", "")
	viper.SetDefault("marketing_api_timeout_sec", 30)

	// Environment variables
	viper.SetEnvPrefix("LEADFLOW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
