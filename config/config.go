package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Extraction ExtractionConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Matching   MatchingConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ExtractionConfig holds OCR/speech extraction gateway configuration
type ExtractionConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	VisionModel        string        `mapstructure:"vision_model"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP      int `mapstructure:"per_ip"`     // requests per minute per client IP
	Extraction int `mapstructure:"extraction"` // gateway requests per minute
}

// MatchingConfig holds the fuzzy-matching tunables. The weights are
// empirically chosen; exposing them here lets them be recalibrated against
// real catalogs without code changes.
type MatchingConfig struct {
	Threshold          float64 `mapstructure:"threshold"`
	SimilarityWeight   float64 `mapstructure:"similarity_weight"`
	CoverageWeight     float64 `mapstructure:"coverage_weight"`
	ContainmentBonus   float64 `mapstructure:"containment_bonus"`
	LengthBonus        float64 `mapstructure:"length_bonus"`
	ContainmentFloor   float64 `mapstructure:"containment_floor"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stocklens/")

	v.SetEnvPrefix("STOCKLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Extraction defaults. api_key defaults to empty so the env binding
	// exists; validate rejects the empty value.
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.base_url", "https://api.openai.com/v1")
	v.SetDefault("extraction.vision_model", "gpt-4o-mini")
	v.SetDefault("extraction.transcription_model", "whisper-1")
	v.SetDefault("extraction.timeout", "60s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.extraction", 60)

	// Matching defaults mirror the hardcoded fallbacks in the service
	v.SetDefault("matching.threshold", 0.7)
	v.SetDefault("matching.similarity_weight", 0.7)
	v.SetDefault("matching.coverage_weight", 0.2)
	v.SetDefault("matching.containment_bonus", 0.15)
	v.SetDefault("matching.length_bonus", 0.05)
	v.SetDefault("matching.containment_floor", 0.7)
	v.SetDefault("matching.enable_debug_logging", false)

	// Log defaults
	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Extraction.APIKey == "" {
		return fmt.Errorf("extraction API key is required (set STOCKLENS_EXTRACTION_API_KEY)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis'")
	}

	if config.Matching.Threshold <= 0 || config.Matching.Threshold > 1 {
		return fmt.Errorf("matching threshold must be in (0, 1], got: %g", config.Matching.Threshold)
	}

	return nil
}
