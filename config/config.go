package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP server
	Server ServerConfig `mapstructure:"server"`

	// Upstream link store (authoritative code -> destination mapping)
	LinkStore LinkStoreConfig `mapstructure:"linkstore"`

	// Resolution cache
	Cache CacheConfig `mapstructure:"cache"`

	// Click tracking
	Tracking TrackingConfig `mapstructure:"tracking"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	PurgeSecret string `mapstructure:"purge_secret"`
}

type LinkStoreConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	// FreshnessHorizon is how long an entry is trusted without re-querying
	// the origin. Destinations are immutable once assigned, so this is long.
	FreshnessHorizon time.Duration `mapstructure:"freshness_horizon"`
	// Retention keeps a stale entry around past its horizon so redirects
	// can survive an origin outage.
	Retention time.Duration `mapstructure:"retention"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

type TrackingConfig struct {
	// Transport selects how click events leave the edge: "nats" publishes
	// to JetStream for the forwarder to drain, "direct" posts straight to
	// the link store.
	Transport string        `mapstructure:"transport"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

type PrometheusConfig struct {
	Port           int    `mapstructure:"port"`
	Retention      string `mapstructure:"retention"`
	ScrapeInterval string `mapstructure:"scrape_interval"`
	Target         string `mapstructure:"target"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LinkStore.BaseURL == "" {
		return nil, fmt.Errorf("linkstore.base_url is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("linkstore.timeout", 5*time.Second)

	// Only deletion invalidates an entry, so trust cached destinations for
	// a year and retain them twice as long for outage fallback.
	v.SetDefault("cache.freshness_horizon", 365*24*time.Hour)
	v.SetDefault("cache.retention", 2*365*24*time.Hour)
	v.SetDefault("cache.key_prefix", "link")

	v.SetDefault("tracking.transport", "nats")
	v.SetDefault("tracking.timeout", 3*time.Second)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.purge_secret", "PURGE_SECRET")

	// Link store
	v.BindEnv("linkstore.base_url", "LINKSTORE_BASE_URL")
	v.BindEnv("linkstore.timeout", "LINKSTORE_TIMEOUT")

	// Cache
	v.BindEnv("cache.freshness_horizon", "CACHE_FRESHNESS_HORIZON")
	v.BindEnv("cache.retention", "CACHE_RETENTION")
	v.BindEnv("cache.key_prefix", "CACHE_KEY_PREFIX")

	// Tracking
	v.BindEnv("tracking.transport", "TRACKING_TRANSPORT")
	v.BindEnv("tracking.timeout", "TRACKING_TIMEOUT")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("nats.monitor_port", "NATS_MONITOR_PORT")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
	v.BindEnv("prometheus.retention", "PROM_RETENTION")
	v.BindEnv("prometheus.scrape_interval", "PROM_SCRAPE_INTERVAL")
	v.BindEnv("prometheus.target", "PROM_TARGET")
}
