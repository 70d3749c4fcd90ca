package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config lists the tunable parameters for the ScrapConnect sync client.
type Config struct {
	HTTPPort int    `mapstructure:"http_port"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`

	// Remote spreadsheet-backed API.
	RemoteURL     string        `mapstructure:"remote_url"`
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`
	RemoteRate    float64       `mapstructure:"remote_rate"`
	RemoteBurst   int           `mapstructure:"remote_burst"`

	// Local cache.
	CacheBackend   string `mapstructure:"cache_backend"`
	DatabasePath   string `mapstructure:"database_path"`
	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`

	// Notice delivery.
	MQTTBroker      string `mapstructure:"mqtt_broker"`
	MQTTTopicPrefix string `mapstructure:"mqtt_topic_prefix"`
	MQTTClientID    string `mapstructure:"mqtt_client_id"`

	MDNSEnabled bool   `mapstructure:"mdns_enabled"`
	CountryCode string `mapstructure:"country_code"`
}

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"

	envPrefix = "SCRAPCONNECT"
)

var defaults = map[string]any{
	"http_port":         8080,
	"env":               "development",
	"log_level":         "info",
	"remote_url":        "",
	"remote_timeout":    30 * time.Second,
	"remote_rate":       5.0,
	"remote_burst":      5,
	"cache_backend":     BackendSQLite,
	"database_path":     "data/scrapconnect.db",
	"redis_addr":        "localhost:6379",
	"redis_password":    "",
	"redis_db":          0,
	"redis_key_prefix":  "scrapconnect:",
	"mqtt_broker":       "",
	"mqtt_topic_prefix": "scrapconnect",
	"mqtt_client_id":    "scrapconnect-sync",
	"mdns_enabled":      false,
	"country_code":      "91",
}

// Load reads .env, an optional config.yaml and SCRAPCONNECT_* environment variables,
// falling back to defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	switch c.CacheBackend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("invalid %s_CACHE_BACKEND %q: want %s or %s", envPrefix, c.CacheBackend, BackendSQLite, BackendRedis)
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid %s_HTTP_PORT: %d", envPrefix, c.HTTPPort)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("invalid %s_REMOTE_TIMEOUT: %s", envPrefix, c.RemoteTimeout)
	}
	if c.RemoteRate < 0 {
		return fmt.Errorf("invalid %s_REMOTE_RATE: %v", envPrefix, c.RemoteRate)
	}
	// A limiter with zero burst rejects every wait.
	if c.RemoteRate > 0 && c.RemoteBurst < 1 {
		return fmt.Errorf("invalid %s_REMOTE_BURST: %d, must be at least 1 when a rate is set", envPrefix, c.RemoteBurst)
	}
	return nil
}
