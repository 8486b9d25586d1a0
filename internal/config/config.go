package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds environment-based settings
type Config struct {
	Environment   string `mapstructure:"APP_ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`

	StoreDriver    string `mapstructure:"STORE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTExpiry time.Duration `mapstructure:"JWT_EXPIRY"`

	RedisAddress     string        `mapstructure:"REDIS_ADDRESS"`
	RedisUsername    string        `mapstructure:"REDIS_USERNAME"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	CampaignCacheTTL time.Duration `mapstructure:"CAMPAIGN_CACHE_TTL"`

	MQTTBrokerURL   string `mapstructure:"MQTT_BROKER_URL"`
	MQTTClientID    string `mapstructure:"MQTT_CLIENT_ID"`
	MQTTUsername    string `mapstructure:"MQTT_USERNAME"`
	MQTTPassword    string `mapstructure:"MQTT_PASSWORD"`
	MQTTTopicPrefix string `mapstructure:"MQTT_TOPIC_PREFIX"`

	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	UploadMaxBytes int64  `mapstructure:"UPLOAD_MAX_BYTES"`

	UseSpaces       bool   `mapstructure:"USE_SPACES"`
	SpacesEndpoint  string `mapstructure:"SPACES_ENDPOINT"`
	SpacesRegion    string `mapstructure:"SPACES_REGION"`
	SpacesBucket    string `mapstructure:"SPACES_BUCKET"`
	SpacesCDNURL    string `mapstructure:"SPACES_CDN_URL"`
	SpacesAccessKey string `mapstructure:"SPACES_ACCESS_KEY"`
	SpacesSecretKey string `mapstructure:"SPACES_SECRET_KEY"`
}

var defaults = map[string]any{
	"APP_ENV":            "production",
	"LOG_LEVEL":          "info",
	"SERVER_ADDRESS":     ":8080",
	"STORE_DRIVER":       StoreDriverPostgres,
	"DATABASE_URL":       "",
	"MIGRATIONS_PATH":    "./migrations",
	"JWT_SECRET":         "",
	"JWT_EXPIRY":         "72h",
	"REDIS_ADDRESS":      "",
	"REDIS_USERNAME":     "",
	"REDIS_PASSWORD":     "",
	"CAMPAIGN_CACHE_TTL": "30s",
	"MQTT_BROKER_URL":    "",
	"MQTT_CLIENT_ID":     "marquee-server",
	"MQTT_USERNAME":      "",
	"MQTT_PASSWORD":      "",
	"MQTT_TOPIC_PREFIX":  "signage",
	"UPLOAD_DIR":         "./uploads",
	"UPLOAD_MAX_BYTES":   100 << 20,
	"USE_SPACES":         false,
	"SPACES_ENDPOINT":    "",
	"SPACES_REGION":      "",
	"SPACES_BUCKET":      "",
	"SPACES_CDN_URL":     "",
	"SPACES_ACCESS_KEY":  "",
	"SPACES_SECRET_KEY":  "",
}

// Load reads an optional .env file, then configuration from environment
// variables, falling back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
		v.SetDefault(key, value)
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	if c.UseSpaces && (c.SpacesBucket == "" || c.SpacesEndpoint == "" || c.SpacesCDNURL == "") {
		return fmt.Errorf("SPACES_ENDPOINT, SPACES_BUCKET and SPACES_CDN_URL are required when USE_SPACES is set")
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
