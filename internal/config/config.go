package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultDBPath         = "./producepricer.db"
	defaultPort           = "8080"
	defaultEnv            = "development"
	defaultRecomputeCron  = "15 0 * * *"
	defaultTimezone       = "UTC"
	defaultLookbackDays   = 30
	defaultDesignationFee = "1.00"
	defaultMarkupTiers    = "25,30,35,40,45"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Pricing   PricingConfig
	Schedule  ScheduleConfig
	Bootstrap BootstrapConfig
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string
}

// PricingConfig tunes the cost engine.
type PricingConfig struct {
	DesignationDefaultRate decimal.Decimal
	MarketLookbackDays     int
	MarkupTiers            []int
}

// ScheduleConfig drives the periodic recompute sweep. An empty RecomputeCron
// disables it.
type ScheduleConfig struct {
	RecomputeCron string
	Timezone      string
}

// Location resolves Timezone. Business dates and the sweep both use it.
func (s ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// BootstrapConfig seeds a first tenant and API key on startup.
type BootstrapConfig struct {
	Tenant string
	APIKey string
}

// IsDev reports whether the server runs in development mode.
func (c Config) IsDev() bool {
	return c.Server.Env == defaultEnv
}

// Load reads an optional .env file plus the process environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg := Config{
		Server: ServerConfig{
			Port: getenvWithDefault("PORT", defaultPort),
			Env:  getenvWithDefault("APP_ENV", defaultEnv),
		},
		Database: DatabaseConfig{
			Path: getenvWithDefault("DB_PATH", defaultDBPath),
		},
		Schedule: ScheduleConfig{
			RecomputeCron: getenvWithDefault("RECOMPUTE_CRON", defaultRecomputeCron),
			Timezone:      getenvWithDefault("TIMEZONE", defaultTimezone),
		},
		Bootstrap: BootstrapConfig{
			Tenant: os.Getenv("BOOTSTRAP_TENANT"),
			APIKey: os.Getenv("BOOTSTRAP_API_KEY"),
		},
	}
	if v, ok := os.LookupEnv("RECOMPUTE_CRON"); ok && v == "" {
		cfg.Schedule.RecomputeCron = ""
	}

	rate, err := decimal.NewFromString(getenvWithDefault("DESIGNATION_DEFAULT_RATE", defaultDesignationFee))
	if err != nil {
		return Config{}, fmt.Errorf("parse DESIGNATION_DEFAULT_RATE: %w", err)
	}
	cfg.Pricing.DesignationDefaultRate = rate

	lookback, err := strconv.Atoi(getenvWithDefault("MARKET_LOOKBACK_DAYS", strconv.Itoa(defaultLookbackDays)))
	if err != nil {
		return Config{}, fmt.Errorf("parse MARKET_LOOKBACK_DAYS: %w", err)
	}
	cfg.Pricing.MarketLookbackDays = lookback

	tiers, err := parseTiers(getenvWithDefault("MARKUP_TIERS", defaultMarkupTiers))
	if err != nil {
		return Config{}, fmt.Errorf("parse MARKUP_TIERS: %w", err)
	}
	cfg.Pricing.MarkupTiers = tiers

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are sane.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.Database.Path == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.Pricing.DesignationDefaultRate.IsNegative() {
		return errors.New("DESIGNATION_DEFAULT_RATE must not be negative")
	}
	if c.Pricing.MarketLookbackDays <= 0 {
		return errors.New("MARKET_LOOKBACK_DAYS must be positive")
	}
	if len(c.Pricing.MarkupTiers) == 0 {
		return errors.New("MARKUP_TIERS must list at least one percentage")
	}
	if _, err := c.Schedule.Location(); err != nil {
		return err
	}
	if (c.Bootstrap.Tenant == "") != (c.Bootstrap.APIKey == "") {
		return errors.New("BOOTSTRAP_TENANT and BOOTSTRAP_API_KEY must be set together")
	}
	return nil
}

func parseTiers(raw string) ([]int, error) {
	var tiers []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pct, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", part, err)
		}
		if pct < 0 {
			return nil, fmt.Errorf("tier %d is negative", pct)
		}
		tiers = append(tiers, pct)
	}
	return tiers, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
