package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        int
	DatabaseURL string
	Env         string
	LogLevel    string
	// LogFormat overrides the environment's default encoding when set.
	LogFormat string
	// RedisURL switches the snapshot cache to Redis when set.
	RedisURL           string
	SnapshotTTL        time.Duration
	LocalCurrency      string
	WholesaleMarginPct decimal.Decimal
	RetailMarginPct    decimal.Decimal
}

func Load() (Config, error) {
	return LoadFrom(filepath.Join(".", ".env"))
}

// LoadFrom reads settings from the environment, falling back to the dotenv
// file at envPath. A missing file is fine; a malformed one is an error.
func LoadFrom(envPath string) (Config, error) {
	values := map[string]string{}
	if _, err := os.Stat(envPath); err == nil {
		fileValues, err := godotenv.Read(envPath)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", envPath, err)
		}
		values = fileValues
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat %s: %w", envPath, err)
	}
	lookup := func(key string) string {
		return firstNonEmpty(os.Getenv(key), values[key])
	}

	cfg := Config{
		Port:               8080,
		Env:                "development",
		LogLevel:           "info",
		SnapshotTTL:        30 * time.Second,
		LocalCurrency:      "CAD",
		WholesaleMarginPct: decimal.NewFromInt(25),
		RetailMarginPct:    decimal.NewFromInt(40),
	}

	if portRaw := lookup("PORT"); portRaw != "" {
		port, err := strconv.Atoi(portRaw)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("invalid PORT: %q", portRaw)
		}
		cfg.Port = port
	}

	cfg.DatabaseURL = lookup("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required (environment variable or .env)")
	}

	if env := strings.ToLower(lookup("APP_ENV")); env != "" {
		if env != "development" && env != "production" {
			return Config{}, fmt.Errorf("invalid APP_ENV: %q", env)
		}
		cfg.Env = env
	}

	if level := lookup("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if format := strings.ToLower(lookup("LOG_FORMAT")); format != "" {
		if format != "json" && format != "console" {
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: %q", format)
		}
		cfg.LogFormat = format
	}

	cfg.RedisURL = lookup("REDIS_URL")

	if ttlRaw := lookup("SNAPSHOT_TTL"); ttlRaw != "" {
		ttl, err := time.ParseDuration(ttlRaw)
		if err != nil || ttl < 0 {
			return Config{}, fmt.Errorf("invalid SNAPSHOT_TTL: %q", ttlRaw)
		}
		cfg.SnapshotTTL = ttl
	}

	if currency := lookup("LOCAL_CURRENCY"); currency != "" {
		currency = strings.ToUpper(currency)
		if money.GetCurrency(currency) == nil {
			return Config{}, fmt.Errorf("invalid LOCAL_CURRENCY: %q", currency)
		}
		cfg.LocalCurrency = currency
	}

	var err error
	if cfg.WholesaleMarginPct, err = marginPct(lookup("WHOLESALE_MARGIN_PCT"), cfg.WholesaleMarginPct); err != nil {
		return Config{}, fmt.Errorf("invalid WHOLESALE_MARGIN_PCT: %w", err)
	}
	if cfg.RetailMarginPct, err = marginPct(lookup("RETAIL_MARGIN_PCT"), cfg.RetailMarginPct); err != nil {
		return Config{}, fmt.Errorf("invalid RETAIL_MARGIN_PCT: %w", err)
	}

	return cfg, nil
}

func marginPct(raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", raw)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%q is negative", raw)
	}
	return value, nil
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if value := strings.TrimSpace(candidate); value != "" {
			return value
		}
	}
	return ""
}
