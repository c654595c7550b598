// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EngineConfig holds the market-data engine's process-wide defaults. Every
// Crawl* call can be given a per-call override; these are the floors used
// when a caller (or the CLI) doesn't set one.
type EngineConfig struct {
	Exchange              string        `mapstructure:"exchange"`
	MarketType            string        `mapstructure:"market_type"`
	MessageType           string        `mapstructure:"message_type"`
	Pairs                 []string      `mapstructure:"pairs"`
	IntervalSeconds       int           `mapstructure:"interval_seconds"`
	Duration              time.Duration `mapstructure:"duration"`
	MinConnectInterval    time.Duration `mapstructure:"min_connect_interval"`
	KeepaliveMultiplier   int           `mapstructure:"keepalive_watchdog_multiplier"`
	CircuitBreakerTimeout time.Duration `mapstructure:"circuit_breaker_timeout"`
}

// CatalogConfig holds the Catalog REST collaborator's settings.
type CatalogConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	RefreshJitter     time.Duration `mapstructure:"refresh_jitter"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// SnapshotConfig holds the REST snapshot crawler's settings.
type SnapshotConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("CRAWLER")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "CRAWLER_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "CRAWLER_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "CRAWLER_LOG_LEVEL", "LOG_LEVEL")

	// Engine
	v.BindEnv("engine.exchange", "CRAWLER_EXCHANGE")
	v.BindEnv("engine.market_type", "CRAWLER_MARKET_TYPE")
	v.BindEnv("engine.message_type", "CRAWLER_MESSAGE_TYPE")
	v.BindEnv("engine.pairs", "CRAWLER_PAIRS")
	v.BindEnv("engine.duration", "CRAWLER_DURATION")
	v.BindEnv("engine.min_connect_interval", "CRAWLER_MIN_CONNECT_INTERVAL")
	v.BindEnv("engine.circuit_breaker_timeout", "CRAWLER_CIRCUIT_BREAKER_TIMEOUT")

	// Catalog
	v.BindEnv("catalog.requests_per_minute", "CRAWLER_CATALOG_RPM")
	v.BindEnv("catalog.refresh_interval", "CRAWLER_CATALOG_REFRESH_INTERVAL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "CRAWLER_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "CRAWLER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "CRAWLER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "market-crawler")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Engine defaults
	v.SetDefault("engine.exchange", "binance")
	v.SetDefault("engine.market_type", "spot")
	v.SetDefault("engine.message_type", "trade")
	v.SetDefault("engine.min_connect_interval", "1s")
	v.SetDefault("engine.keepalive_watchdog_multiplier", 2)
	v.SetDefault("engine.circuit_breaker_timeout", "30s")

	// Catalog defaults
	v.SetDefault("catalog.requests_per_minute", 30)
	v.SetDefault("catalog.refresh_interval", "1h")
	v.SetDefault("catalog.refresh_jitter", "5m")
	v.SetDefault("catalog.request_timeout", "10s")

	// Snapshot defaults
	v.SetDefault("snapshot.requests_per_minute", 60)
	v.SetDefault("snapshot.poll_interval", "5s")
	v.SetDefault("snapshot.request_timeout", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "market-crawler")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.Exchange == "" {
		return fmt.Errorf("engine.exchange is required")
	}
	if c.Engine.MarketType == "" {
		return fmt.Errorf("engine.market_type is required")
	}
	if c.Engine.MessageType == "" {
		return fmt.Errorf("engine.message_type is required")
	}
	return nil
}
