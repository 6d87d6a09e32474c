// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable.
type Config struct {
	Env     string // application environment (e.g. "dev", "prod")
	Port    string // HTTP port to listen on
	Storage string // "mysql" (default) or "memory"

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	LogLevel  string // LOG_LEVEL: debug, info, warn, error
	LogFormat string // LOG_FORMAT: json or console

	BodyLimit   string   // max request body, echo size notation ("1M")
	CORSOrigins []string // allowed origins, "*" when unset

	ShutdownTimeout time.Duration
}

// AccessTTL returns the access token lifetime.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL returns the refresh token lifetime.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// Load reads configuration values from environment variables and returns
// a Config. Every missing required variable is reported in the error.
func Load() (Config, error) {
	l := &loader{}
	cfg := Config{
		Env:     envStr("APP_ENV", "dev"),
		Port:    envStr("APP_PORT", "8080"),
		Storage: strings.ToLower(envStr("STORAGE", StorageMySQL)),

		JWTSecret:      l.must("JWT_SECRET"),
		AccessTTLMin:   l.mustInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays: l.mustInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     l.mustInt("BCRYPT_COST", 12),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),

		BodyLimit:       envStr("HTTP_BODY_LIMIT", "1M"),
		CORSOrigins:     envList("CORS_ALLOW_ORIGINS", []string{"*"}),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	l.storage(&cfg)
	return cfg, errors.Join(l.errs...)
}

// LoadStorage reads only STORAGE and the DB_* variables. The ingest
// command uses it since it issues no tokens.
func LoadStorage() (Config, error) {
	l := &loader{}
	cfg := Config{Storage: strings.ToLower(envStr("STORAGE", StorageMySQL))}
	l.storage(&cfg)
	return cfg, errors.Join(l.errs...)
}

// loader accumulates problems with required variables so that all of
// them are reported at once.
type loader struct{ errs []error }

func (l *loader) storage(cfg *Config) {
	switch cfg.Storage {
	case StorageMySQL:
		cfg.DBUser = l.must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = l.must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = l.must("DB_NAME")
	case StorageMemory:
	default:
		l.errs = append(l.errs, fmt.Errorf("invalid STORAGE %q (want mysql or memory)", cfg.Storage))
	}
}

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		l.errs = append(l.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

// mustInt reads an integer variable, falling back to def when unset. A
// set but unparsable value is an error.
func (l *loader) mustInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}

func envList(k string, d []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
