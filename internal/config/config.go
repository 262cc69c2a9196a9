package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	// CORSAllowedOrigins is a comma-separated allowlist for the dashboard frontend
	CORSAllowedOrigins []string

	// Provider whose appointments drive the dashboard
	ProviderID       string
	Timezone         string
	CurrencySymbol   string
	// AppointmentsFile seeds a static source when no database is configured
	AppointmentsFile string

	// Timeline analysis
	TimelineStartHour int
	TimelineEndHour   int
	MinGapMinutes     int
	KPIRange          string

	// Automation cadence
	RuleInterval       time.Duration
	LegacyRuleInterval time.Duration
	ExpiryInterval     time.Duration
	ClockInterval      time.Duration
	CustomStatusTTL    time.Duration
	RulesFile          string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		ProviderID:       strings.TrimSpace(getEnv("PROVIDER_ID", "")),
		Timezone:         getEnv("TIMEZONE", "UTC"),
		CurrencySymbol:   getEnv("CURRENCY_SYMBOL", "€"),
		AppointmentsFile: getEnv("APPOINTMENTS_FILE", ""),

		TimelineStartHour: getEnvAsInt("TIMELINE_START_HOUR", 8),
		TimelineEndHour:   getEnvAsInt("TIMELINE_END_HOUR", 20),
		MinGapMinutes:     getEnvAsInt("MIN_GAP_MINUTES", 180),
		KPIRange:          getEnv("KPI_RANGE", "Today"),

		RuleInterval:       getEnvAsDuration("RULE_INTERVAL", time.Minute),
		LegacyRuleInterval: getEnvAsDuration("LEGACY_RULE_INTERVAL", 5*time.Minute),
		ExpiryInterval:     getEnvAsDuration("EXPIRY_INTERVAL", 10*time.Second),
		ClockInterval:      getEnvAsDuration("CLOCK_INTERVAL", time.Minute),
		CustomStatusTTL:    getEnvAsDuration("CUSTOM_STATUS_TTL", 60*time.Minute),
		RulesFile:          getEnv("RULES_FILE", ""),
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("config: load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RuleToggles lists rule ids switched off in the rules file.
type RuleToggles struct {
	Rules struct {
		Disabled []string `toml:"disabled"`
	} `toml:"rules"`
}

// LoadRuleToggles reads a TOML rules file. An empty path yields no toggles.
func LoadRuleToggles(path string) (RuleToggles, error) {
	var toggles RuleToggles
	if strings.TrimSpace(path) == "" {
		return toggles, nil
	}
	if _, err := toml.DecodeFile(path, &toggles); err != nil {
		return RuleToggles{}, fmt.Errorf("config: decode rules file: %w", err)
	}
	return toggles, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsDuration accepts Go durations or whole seconds. "0" is kept as zero.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
