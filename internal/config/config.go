package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret          string   `mapstructure:"JWT_SECRET"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	MigrationsDir      string   `mapstructure:"MIGRATIONS_DIR"`
	LockTimeoutSeconds int      `mapstructure:"LOCK_TIMEOUT_SECONDS"`
	TxMaxAttempts      int      `mapstructure:"TX_MAX_ATTEMPTS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("LOCK_TIMEOUT_SECONDS", 10)
	v.SetDefault("TX_MAX_ATTEMPTS", 3)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("LOCK_TIMEOUT_SECONDS")
	v.BindEnv("TX_MAX_ATTEMPTS")

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

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// LockTimeout returns the advisory-lock acquisition bound.
func (c *Config) LockTimeout() time.Duration {
	if c.LockTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.LockTimeoutSeconds) * time.Second
}
