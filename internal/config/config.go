// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"`

	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL                 string `mapstructure:"REDIS_URL"`
	SessionTTLSeconds        int    `mapstructure:"SESSION_TTL_SECONDS"`
	SessionTTLTrustedSeconds int    `mapstructure:"SESSION_TTL_TRUSTED_SECONDS"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	APIBaseURL     string `mapstructure:"API_BASE_URL"`
	WebsiteURL     string `mapstructure:"WEBSITE_URL"`

	EmailHost     string `mapstructure:"EMAIL_HOST"`
	EmailPort     int    `mapstructure:"EMAIL_PORT"`
	EmailUsername string `mapstructure:"EMAIL_USERNAME"`
	EmailPassword string `mapstructure:"EMAIL_PASSWORD"`
	EmailName     string `mapstructure:"EMAIL_NAME"`
	EmailDomain   string `mapstructure:"EMAIL_DOMAIN"`

	ImageStorage    string `mapstructure:"IMAGE_STORAGE"`
	LargeImagePath  string `mapstructure:"LARGE_IMAGE_PATH"`
	MediumImagePath string `mapstructure:"MEDIUM_IMAGE_PATH"`
	ArchivePath     string `mapstructure:"ARCHIVE_PATH"`
	MinioEndpoint   string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey  string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey  string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket     string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL     bool   `mapstructure:"MINIO_USE_SSL"`

	EventsBackend    string `mapstructure:"EVENTS_BACKEND"`
	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopicPrefix string `mapstructure:"KAFKA_TOPIC_PREFIX"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

var defaults = map[string]any{
	"PORT":    "8000",
	"APP_ENV": "development",

	"DB_HOST":                      "localhost",
	"DB_PORT":                      "5432",
	"DB_USER":                      "gyma",
	"DB_PASSWORD":                  "password",
	"DB_NAME":                      "gyma",
	"DB_SSLMODE":                   "disable",
	"DB_MAX_OPEN_CONNS":            25,
	"DB_MAX_IDLE_CONNS":            5,
	"DB_CONN_MAX_LIFETIME_MINUTES": 5,

	"REDIS_URL":                   "localhost:6379",
	"SESSION_TTL_SECONDS":         3600,
	"SESSION_TTL_TRUSTED_SECONDS": 30 * 24 * 3600,

	"ALLOWED_ORIGINS": "http://localhost:5173,http://localhost:3000",
	"API_BASE_URL":    "http://localhost:8000",
	"WEBSITE_URL":     "http://localhost:5173",

	"EMAIL_HOST":     "",
	"EMAIL_PORT":     587,
	"EMAIL_USERNAME": "",
	"EMAIL_PASSWORD": "",
	"EMAIL_NAME":     "Gyma",
	"EMAIL_DOMAIN":   "localhost",

	"IMAGE_STORAGE":     "local",
	"LARGE_IMAGE_PATH":  "images/large",
	"MEDIUM_IMAGE_PATH": "images/medium",
	"ARCHIVE_PATH":      "images/archive",
	"MINIO_ENDPOINT":    "localhost:9000",
	"MINIO_ACCESS_KEY":  "",
	"MINIO_SECRET_KEY":  "",
	"MINIO_BUCKET":      "gyma-images",
	"MINIO_USE_SSL":     false,

	"EVENTS_BACKEND":     "none",
	"KAFKA_BROKERS":      "localhost:9092",
	"KAFKA_TOPIC_PREFIX": "gyma.",

	"TRACING_ENABLED":       false,
	"TRACING_EXPORTER":      "stdout",
	"OTLP_ENDPOINT":         "localhost:4318",
	"TRACING_SAMPLER_RATIO": 1.0,
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env vars and defaults cover every key.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}
	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) || isProduction(env) {
				return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
			}
		} else {
			slog.Info("loaded profile-specific configuration", "file", "config."+env+".yml")
		}
	}

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.ImageStorage = strings.ToLower(strings.TrimSpace(c.ImageStorage))
	c.EventsBackend = strings.ToLower(strings.TrimSpace(c.EventsBackend))
}

func isProduction(env string) bool {
	return env == "production" || env == "prod"
}

// IsProduction reports whether the production rules apply.
func (c *Config) IsProduction() bool {
	return isProduction(c.Env)
}

// SessionTTL is the expiry of a regular session.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// SessionTTLTrusted is the expiry of a session on a trusted device.
func (c *Config) SessionTTLTrusted() time.Duration {
	return time.Duration(c.SessionTTLTrustedSeconds) * time.Second
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// Brokers splits KAFKA_BROKERS.
func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	if c.SessionTTLSeconds <= 0 || c.SessionTTLTrustedSeconds <= 0 {
		return errors.New("SESSION_TTL_SECONDS and SESSION_TTL_TRUSTED_SECONDS must be positive")
	}
	if c.DBConnMaxLifetimeMinutes < 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES cannot be negative")
	}

	switch c.ImageStorage {
	case "", "local":
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for minio image storage")
		}
	default:
		return fmt.Errorf("IMAGE_STORAGE must be local or minio, got %q", c.ImageStorage)
	}

	switch c.EventsBackend {
	case "", "none", "redis":
	case "kafka":
		if len(c.Brokers()) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka events backend")
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be none, redis or kafka, got %q", c.EventsBackend)
	}

	if c.TracingSamplerRatio < 0 || c.TracingSamplerRatio > 1 {
		return errors.New("TRACING_SAMPLER_RATIO must be between 0 and 1")
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.EmailHost == "" {
			return errors.New("EMAIL_HOST is required in production")
		}
		if c.AllowedOrigins == "*" {
			slog.Warn("ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}
