package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Known product source names for acquisition.sources
const (
	SourceCatalog       = "catalog"
	SourceOpenFoodFacts = "openfoodfacts"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Acquisition   AcquisitionConfig   `mapstructure:"acquisition"`
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
	Vision        VisionConfig        `mapstructure:"vision"`
	Store         StoreConfig         `mapstructure:"store"`
	History       HistoryConfig       `mapstructure:"history"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Log           LogConfig           `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxImageBytes  int64    `mapstructure:"max_image_bytes"`
}

// AcquisitionConfig controls where products are looked up
type AcquisitionConfig struct {
	Sources     []string `mapstructure:"sources"` // tried in order
	CatalogPath string   `mapstructure:"catalog_path"`
}

// OpenFoodFactsConfig holds Open Food Facts API configuration
type OpenFoodFactsConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
	BreakerFailures   uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout"`
}

// VisionConfig holds label analysis configuration
type VisionConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	MaxTokens  int64         `mapstructure:"max_tokens"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// StoreConfig holds key-value store configuration
type StoreConfig struct {
	Type       string `mapstructure:"type"` // "memory", "sqlite" or "redis"
	SQLitePath string `mapstructure:"sqlite_path"`
	RedisURL   string `mapstructure:"redis_url"`
	Namespace  string `mapstructure:"namespace"`
}

// HistoryConfig holds scan history configuration
type HistoryConfig struct {
	DisplayLimit int `mapstructure:"display_limit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/allergenapp/")

	// Environment variable settings: ALLERGENAPP_STORE_TYPE -> store.type
	v.SetEnvPrefix("ALLERGENAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values.
// Every key needs a default so environment variables are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.max_image_bytes", 8<<20)

	// Acquisition defaults
	v.SetDefault("acquisition.sources", []string{SourceCatalog, SourceOpenFoodFacts})
	v.SetDefault("acquisition.catalog_path", "")

	// Open Food Facts defaults
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.user_agent", "AllergenApp/1.0")
	v.SetDefault("openfoodfacts.timeout", "10s")
	v.SetDefault("openfoodfacts.requests_per_second", 100.0/60.0)
	v.SetDefault("openfoodfacts.burst", 10)
	v.SetDefault("openfoodfacts.max_retries", 3)
	v.SetDefault("openfoodfacts.breaker_failures", 5)
	v.SetDefault("openfoodfacts.breaker_timeout", "30s")

	// Vision defaults
	v.SetDefault("vision.enabled", false)
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.base_url", "")
	v.SetDefault("vision.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("vision.max_tokens", 1024)
	v.SetDefault("vision.timeout", "30s")
	v.SetDefault("vision.max_retries", 2)

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "allergenapp.db")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.namespace", "allergenapp")

	// History defaults
	v.SetDefault("history.display_limit", 5)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	// Log defaults
	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Store.Type {
	case "memory":
	case "sqlite":
		if config.Store.SQLitePath == "" {
			return fmt.Errorf("SQLite path is required when store type is 'sqlite'")
		}
	case "redis":
		if config.Store.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when store type is 'redis'")
		}
	default:
		return fmt.Errorf("store type must be 'memory', 'sqlite' or 'redis', got: %s", config.Store.Type)
	}

	if len(config.Acquisition.Sources) == 0 {
		return fmt.Errorf("at least one acquisition source is required")
	}
	for _, source := range config.Acquisition.Sources {
		if source != SourceCatalog && source != SourceOpenFoodFacts {
			return fmt.Errorf("unknown acquisition source: %s", source)
		}
	}

	if config.Vision.Enabled && config.Vision.APIKey == "" {
		return fmt.Errorf("vision API key is required when vision is enabled (set ALLERGENAPP_VISION_API_KEY)")
	}
	if config.Vision.MaxRetries < 0 {
		return fmt.Errorf("vision max retries must not be negative, got: %d", config.Vision.MaxRetries)
	}

	if config.History.DisplayLimit <= 0 {
		return fmt.Errorf("history display limit must be positive, got: %d", config.History.DisplayLimit)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("rate limit per IP must be positive, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
