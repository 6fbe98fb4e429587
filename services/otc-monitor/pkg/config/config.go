package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/postgresql"
	"github.com/muhammadchandra19/otc-monitor/pkg/redis"
)

// Feed sources accepted by PriceFeedConfig.Source.
const (
	FeedSourceKafka     = "kafka"
	FeedSourceWebsocket = "websocket"
)

// Config represents the application configuration.
type Config struct {
	App        AppConfig         `envPrefix:"APP_"`
	Redis      redis.Config      `envPrefix:"REDIS_"`
	PostgreSQL postgresql.Config `envPrefix:"POSTGRESQL_"`
	PriceFeed  PriceFeedConfig   `envPrefix:"PRICE_FEED_"`
	PriceCache PriceCacheConfig  `envPrefix:"PRICE_CACHE_"`
	Monitor    MonitorConfig     `envPrefix:"MONITOR_"`
	Execution  ExecutionConfig   `envPrefix:"EXECUTION_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name            string        `env:"NAME" envDefault:"otc-monitor"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile         string        `env:"LOG_FILE"`
	LogMaxSizeMB    int           `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups   int           `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// PriceFeedConfig selects and configures the upstream price source.
type PriceFeedConfig struct {
	Source string `env:"SOURCE" envDefault:"kafka"`

	Brokers       []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic         string   `env:"TOPIC" envDefault:"prices"`
	ConsumerGroup string   `env:"CONSUMER_GROUP" envDefault:"otc-monitor"`

	WSURL            string        `env:"WS_URL"`
	WSSubscribe      string        `env:"WS_SUBSCRIBE"`
	WSReadTimeout    time.Duration `env:"WS_READ_TIMEOUT" envDefault:"60s"`
	WSMaxBackoff     time.Duration `env:"WS_MAX_BACKOFF" envDefault:"30s"`
	WSInitialBackoff time.Duration `env:"WS_INITIAL_BACKOFF" envDefault:"500ms"`
}

// PriceCacheConfig configures write coalescing into the shared price hash.
type PriceCacheConfig struct {
	Key           string        `env:"KEY" envDefault:"otc:prices"`
	FlushInterval time.Duration `env:"FLUSH_INTERVAL" envDefault:"1s"`
}

// MonitorConfig configures the resting order monitor.
type MonitorConfig struct {
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"2m"`
	Broker          string        `env:"BROKER" envDefault:"otc"`
	StableAsset     string        `env:"STABLE_ASSET" envDefault:"usdt"`
}

// ExecutionConfig configures the hand-off of triggered orders.
type ExecutionConfig struct {
	Enabled     bool          `env:"ENABLED" envDefault:"true"`
	Brokers     []string      `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic       string        `env:"TOPIC" envDefault:"otc-executions"`
	ClaimPrefix string        `env:"CLAIM_PREFIX" envDefault:"otc:claimed:"`
	// ClaimTTL of zero keeps a claim until the order leaves the open set.
	ClaimTTL    time.Duration `env:"CLAIM_TTL" envDefault:"0s"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every configuration value the service cannot run with.
func (c *Config) Validate() error {
	baseErr := errors.NewBaseError()
	invalid := func(message, field string) {
		baseErr.AddErrorDetails(errors.NewErrorDetails(message, string(errors.ConfigInvalidError), field))
	}

	if c.App.HTTPPort <= 0 || c.App.HTTPPort > 65535 {
		invalid("HTTP port must be between 1 and 65535", "APP_HTTP_PORT")
	}
	if c.App.LogFile != "" && c.App.LogMaxSizeMB <= 0 {
		invalid("log file size must be positive", "APP_LOG_MAX_SIZE_MB")
	}
	if c.PriceCache.Key == "" {
		invalid("price cache key is required", "PRICE_CACHE_KEY")
	}
	if c.PriceCache.FlushInterval <= 0 {
		invalid("flush interval must be positive", "PRICE_CACHE_FLUSH_INTERVAL")
	}
	if c.Monitor.RefreshInterval <= 0 {
		invalid("refresh interval must be positive", "MONITOR_REFRESH_INTERVAL")
	}
	if strings.TrimSpace(c.Monitor.Broker) == "" {
		invalid("broker tag is required", "MONITOR_BROKER")
	}
	if strings.TrimSpace(c.Monitor.StableAsset) == "" {
		invalid("stable asset is required", "MONITOR_STABLE_ASSET")
	}

	switch c.PriceFeed.Source {
	case FeedSourceKafka:
		if len(c.PriceFeed.Brokers) == 0 || c.PriceFeed.Topic == "" {
			invalid("kafka price feed needs brokers and a topic", "PRICE_FEED_BROKERS")
		}
	case FeedSourceWebsocket:
		if u, err := url.Parse(c.PriceFeed.WSURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			invalid("websocket price feed needs a ws:// or wss:// URL", "PRICE_FEED_WS_URL")
		}
	default:
		invalid("price feed source must be kafka or websocket", "PRICE_FEED_SOURCE")
	}

	if c.Execution.Enabled {
		if len(c.Execution.Brokers) == 0 || c.Execution.Topic == "" {
			invalid("execution publishing needs brokers and a topic", "EXECUTION_BROKERS")
		}
		if c.Execution.ClaimTTL < 0 {
			invalid("claim TTL must not be negative", "EXECUTION_CLAIM_TTL")
		}
	}

	if baseErr.HasDetails() {
		return baseErr
	}
	return nil
}
