/*
Package config loads server settings from flags, with environment
variables as defaults.

PRECEDENCE:
  flag > environment > built-in default

VARIABLES:
  PORT          HTTP port (8080)
  DB_DRIVER     sqlite3 | pgx (sqlite3)
  DATABASE_URL  SQLite path or PostgreSQL DSN (potion-shop.db)
  API_KEY       required access_token header; empty disables the check
  REDIS_ADDR    order cache address; empty disables the cache
  CORS_ORIGINS  comma-separated allowed origins (*)
  SEED          planner random seed; 0 picks one from the clock
  LOG_LEVEL     debug | info | warn | error (info)
  APP_ENV       environment tag on every log line (dev)
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

type Config struct {
	AppEnv   string
	LogLevel string

	Port        int
	DBDriver    string
	DatabaseURL string

	APIKey      string
	RedisAddr   string
	CORSOrigins []string

	Seed            uint64
	ShutdownTimeout time.Duration
}

// Load parses args (without the program name) over environment defaults.
func Load(args []string) (Config, error) {
	var cfg Config
	var origins string

	fs := flag.NewFlagSet("potion-shop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&cfg.Port, "port", getEnvInt("PORT", 8080), "HTTP server port")
	fs.StringVar(&cfg.DBDriver, "driver", getEnv("DB_DRIVER", DriverSQLite), "database driver: sqlite3 or pgx")
	fs.StringVar(&cfg.DatabaseURL, "db", getEnv("DATABASE_URL", "potion-shop.db"), "SQLite path or PostgreSQL DSN")
	fs.StringVar(&cfg.APIKey, "api-key", getEnv("API_KEY", ""), "required access_token header value")
	fs.StringVar(&cfg.RedisAddr, "redis", getEnv("REDIS_ADDR", ""), "Redis address for the order cache")
	fs.StringVar(&origins, "cors", getEnv("CORS_ORIGINS", "*"), "comma-separated allowed origins")
	fs.Uint64Var(&cfg.Seed, "seed", uint64(getEnvInt("SEED", 0)), "planner random seed, 0 for clock")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "log level")
	fs.StringVar(&cfg.AppEnv, "env", getEnv("APP_ENV", "dev"), "environment name")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	return cfg, cfg.Validate()
}

// Validate checks values flags cannot type-check.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		errs = append(errs, fmt.Errorf("unknown driver %q", c.DBDriver))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}
