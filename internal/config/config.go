package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	StoreDriver       string
	DatabaseURL       string
	MigrationsOnStart bool
	SeedFile          string // memory store only

	JWTSecret   string
	CORSOrigins []string

	ChatGrace           time.Duration
	ReportWindow        time.Duration
	ExpirySweepInterval time.Duration // zero disables the sweeper
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load(".env")
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:        withDefault(getenv("PORT"), "8080"),
		Environment: withDefault(getenv("ENV"), "development"),
		LogLevel:    withDefault(getenv("LOG_LEVEL"), "info"),
		StoreDriver: strings.ToLower(withDefault(getenv("STORE_DRIVER"), StoreDriverPostgres)),
		DatabaseURL: getenv("DATABASE_URL"),
		SeedFile:    getenv("SEED_FILE"),
		JWTSecret:   getenv("JWT_SECRET"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS")),
	}

	var errs []error
	var err error

	if cfg.MigrationsOnStart, err = parseBool(getenv("MIGRATIONS_ON_START"), true); err != nil {
		errs = append(errs, fmt.Errorf("MIGRATIONS_ON_START: %w", err))
	}
	if cfg.ChatGrace, err = parseMinutes(getenv("CHAT_GRACE_MINUTES"), 30); err != nil {
		errs = append(errs, fmt.Errorf("CHAT_GRACE_MINUTES: %w", err))
	}
	if cfg.ReportWindow, err = parseMinutes(getenv("REPORT_WINDOW_MINUTES"), 60); err != nil {
		errs = append(errs, fmt.Errorf("REPORT_WINDOW_MINUTES: %w", err))
	}
	if cfg.ExpirySweepInterval, err = parseDuration(getenv("EXPIRY_SWEEP_INTERVAL"), time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("EXPIRY_SWEEP_INTERVAL: %w", err))
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver))
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required but not set"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string, def bool) (bool, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}

func parseMinutes(v string, def int) (time.Duration, error) {
	if strings.TrimSpace(v) == "" {
		return time.Duration(def) * time.Minute, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative, got %d", n)
	}
	return time.Duration(n) * time.Minute, nil
}

func parseDuration(v string, def time.Duration) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return def, nil
	}
	if v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", d)
	}
	return d, nil
}
