// Package config handles environment variable parsing and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthMode represents the SSH authentication mode.
type AuthMode string

const (
	AuthModeAllowlist AuthMode = "allowlist"
	AuthModePublic    AuthMode = "public"
)

// StoreKind selects the cart store backend.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreFile   StoreKind = "file"
	StoreRedis  StoreKind = "redis"
)

// Config holds all application configuration.
type Config struct {
	// SSH server settings
	SSHAddr        string
	SSHHostKeyPath string
	SSHAuthMode    AuthMode
	AllowlistPath  string

	// Catalog feed settings
	CatalogBaseURL string
	CacheTTL       time.Duration

	// Cart store settings
	Store      StoreKind
	StoreDir   string
	SessionTTL time.Duration

	// Redis settings, used when Store is redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Pricing region and reference data. Empty paths use the built-in tables.
	DefaultCountry    string
	DefaultLocale     string
	CurrencyTablePath string
	GiftTiersPath     string

	LogLevel string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		SSHAddr:           getEnv("SSH_ADDR", ":23234"),
		SSHHostKeyPath:    getEnv("SSH_HOSTKEY_PATH", "./.ssh_host_ed25519_key"),
		SSHAuthMode:       AuthMode(getEnv("SSH_AUTH_MODE", "allowlist")),
		AllowlistPath:     getEnv("SSH_ALLOWLIST_PATH", "./allowlist_authorized_keys"),
		CatalogBaseURL:    getEnv("CATALOG_BASE_URL", "http://127.0.0.1:18080"),
		Store:             StoreKind(strings.ToLower(getEnv("CART_STORE", "memory"))),
		StoreDir:          getEnv("CART_STORE_DIR", "./.carts"),
		RedisAddr:         getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		DefaultCountry:    strings.ToUpper(getEnv("DEFAULT_COUNTRY", "US")),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "en-US"),
		CurrencyTablePath: os.Getenv("CURRENCY_TABLE_PATH"),
		GiftTiersPath:     os.Getenv("GIFT_TIERS_PATH"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.CacheTTL, err = getSeconds("CACHE_TTL_SECONDS", 60); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getSeconds("CART_SESSION_TTL_SECONDS", 86400); err != nil {
		return nil, err
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("REDIS_DB must be a valid integer")
	}

	// Validate auth mode
	if cfg.SSHAuthMode != AuthModeAllowlist && cfg.SSHAuthMode != AuthModePublic {
		return nil, errors.New("SSH_AUTH_MODE must be 'allowlist' or 'public'")
	}

	switch cfg.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return nil, errors.New("CART_STORE must be 'memory', 'file' or 'redis'")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getSeconds(key string, defaultValue int) (time.Duration, error) {
	seconds, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return time.Duration(seconds) * time.Second, nil
}
