package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                     "8000",
		Env:                      "development",
		DBPassword:               "secure-password",
		DBSSLMode:                "require",
		RedisURL:                 "redis://localhost:6379",
		SessionTTLSeconds:        3600,
		SessionTTLTrustedSeconds: 86400,
		ImageStorage:             "local",
		EventsBackend:            "none",
		EmailHost:                "smtp.example.com",
		TracingSamplerRatio:      1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateBackends(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"minio without bucket", func(c *Config) { c.ImageStorage = "minio"; c.MinioEndpoint = "m:9000" }, false},
		{"minio configured", func(c *Config) {
			c.ImageStorage = "minio"
			c.MinioEndpoint = "m:9000"
			c.MinioBucket = "pics"
		}, true},
		{"unknown storage", func(c *Config) { c.ImageStorage = "s3" }, false},
		{"kafka without brokers", func(c *Config) { c.EventsBackend = "kafka"; c.KafkaBrokers = " , " }, false},
		{"kafka configured", func(c *Config) { c.EventsBackend = "kafka"; c.KafkaBrokers = "k1:9092,k2:9092" }, true},
		{"unknown events", func(c *Config) { c.EventsBackend = "nats" }, false},
		{"zero session ttl", func(c *Config) { c.SessionTTLSeconds = 0 }, false},
		{"sampler out of range", func(c *Config) { c.TracingSamplerRatio = 1.5 }, false},
		{"production without mail", func(c *Config) { c.Env = "production"; c.EmailHost = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if tt.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}

func TestConfig_Helpers(t *testing.T) {
	c := validConfig()
	c.AllowedOrigins = "http://a.test, http://b.test,,"
	c.KafkaBrokers = "k1:9092"

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Origins())
	assert.Equal(t, []string{"k1:9092"}, c.Brokers())
	assert.Equal(t, time.Hour, c.SessionTTL())
	assert.Equal(t, 24*time.Hour, c.SessionTTLTrusted())
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("EVENTS_BACKEND", "Redis")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "redis", c.EventsBackend)
	assert.Equal(t, 25, c.DBMaxOpenConns)
	assert.Equal(t, time.Hour, c.SessionTTL())
	assert.Equal(t, "local", c.ImageStorage)
}
