package redis

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type client struct {
	logger logger.Interface
	config *Config

	mu  sync.RWMutex
	rdb redis.UniversalClient
}

// NewClient creates a new Redis client with the provided logger and configuration.
// Connect must be called before any command is issued.
func NewClient(logger logger.Interface, config *Config) Client {
	return &client{
		logger: logger,
		config: config,
	}
}

// validate reports the first configuration value the client cannot work with.
func (c *client) validate() error {
	invalid := func(message string) error {
		return errors.NewErrorDetails(message, string(errors.RedisConfigError), "connect")
	}

	switch {
	case c.config == nil:
		return invalid("Redis config is nil")
	case len(c.config.Addrs) == 0:
		return invalid("Redis addresses are empty")
	case c.config.Mode != Standalone && c.config.Mode != Cluster:
		return invalid("Invalid Redis mode")
	case c.config.ConnectTimeout <= 0:
		return invalid("Invalid Redis connect timeout")
	case c.config.PoolSize <= 0:
		return invalid("Invalid Redis pool size")
	case c.config.MaxIdleConns < 0:
		return invalid("Invalid Redis max idle connections")
	case c.config.ConnMaxLifetime <= 0:
		return invalid("Invalid Redis connection max lifetime")
	case c.config.ConnMaxIdleTime <= 0:
		return invalid("Invalid Redis connection max idle time")
	case c.config.PoolTimeout <= 0:
		return invalid("Invalid Redis pool timeout")
	case c.config.MaxRetries < 0:
		return invalid("Invalid Redis max retries")
	case c.config.MinRetryBackoff < 0:
		return invalid("Invalid Redis minimum retry backoff")
	case c.config.MaxRetryBackoff < 0:
		return invalid("Invalid Redis maximum retry backoff")
	}

	return nil
}

func (c *client) Connect(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}

	var rdb redis.UniversalClient
	switch c.config.Mode {
	case Standalone:
		rdb = redis.NewClient(&redis.Options{
			Addr:            c.config.Addrs[0],
			Username:        c.config.Username,
			Password:        c.config.Password,
			DB:              c.config.DB,
			MaxRetries:      c.config.MaxRetries,
			MinRetryBackoff: c.config.MinRetryBackoff,
			MaxRetryBackoff: c.config.MaxRetryBackoff,
			DialTimeout:     c.config.ConnectTimeout,
			ReadTimeout:     c.config.ConnectTimeout,
			WriteTimeout:    c.config.ConnectTimeout,
			PoolSize:        c.config.PoolSize,
			MinIdleConns:    c.config.MinIdleConns,
			MaxIdleConns:    c.config.MaxIdleConns,
			ConnMaxLifetime: c.config.ConnMaxLifetime,
			ConnMaxIdleTime: c.config.ConnMaxIdleTime,
			PoolTimeout:     c.config.PoolTimeout,
		})
	case Cluster:
		rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           c.config.Addrs,
			Username:        c.config.Username,
			Password:        c.config.Password,
			MaxRetries:      c.config.MaxRetries,
			MinRetryBackoff: c.config.MinRetryBackoff,
			MaxRetryBackoff: c.config.MaxRetryBackoff,
			DialTimeout:     c.config.ConnectTimeout,
			ReadTimeout:     c.config.ConnectTimeout,
			WriteTimeout:    c.config.ConnectTimeout,
			PoolSize:        c.config.PoolSize,
			MinIdleConns:    c.config.MinIdleConns,
			MaxIdleConns:    c.config.MaxIdleConns,
			ConnMaxLifetime: c.config.ConnMaxLifetime,
			ConnMaxIdleTime: c.config.ConnMaxIdleTime,
			PoolTimeout:     c.config.PoolTimeout,
		})
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return errors.NewErrorDetailsWithCause("Failed to connect to Redis", errors.RedisConnectionError, "connect", err)
	}

	c.mu.Lock()
	previous := c.rdb
	c.rdb = rdb
	c.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}

	return nil
}

// Reconnect retries Connect with capped exponential backoff plus jitter.
// It reports whether a connection was re-established.
func (c *client) Reconnect(ctx context.Context) bool {
	baseDelay := c.config.MinRetryBackoff
	maxDelay := c.config.MaxRetryBackoff

	for i := range c.config.ReconnectMaxRetries {
		backoff := min(baseDelay*time.Duration(math.Pow(2, float64(i))), maxDelay)
		totalDelay := backoff + time.Duration(rand.IntN(1000))*time.Millisecond

		c.logger.Info("Reconnecting to Redis",
			logger.NewField("attempt", i+1),
			logger.NewField("delay", totalDelay),
		)

		select {
		case <-ctx.Done():
			c.logger.Info("Reconnect cancelled", logger.NewField("reason", ctx.Err()))
			return false
		case <-time.After(totalDelay):
			connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := c.Connect(connectCtx)
			cancel()
			if err == nil {
				c.logger.Info("Reconnected to Redis successfully", logger.NewField("attempt", i+1))
				return true
			}
			c.logger.Error(errors.TracerFromError(err), logger.NewField("attempt", i+1))
		}
	}

	return false
}

func (c *client) conn() (redis.UniversalClient, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.rdb == nil {
		return nil, errors.NewErrorDetails("Redis client is not connected", string(errors.RedisConnectionError), "conn")
	}
	return c.rdb, nil
}

func (c *client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	rdb := c.rdb
	c.rdb = nil
	c.mu.Unlock()

	if rdb == nil {
		return nil
	}
	if err := rdb.Close(); err != nil {
		return errors.NewErrorDetailsWithCause("Failed to disconnect from Redis", errors.RedisDisconnectionError, "disconnect", err)
	}
	return nil
}

func (c *client) Ping(ctx context.Context) error {
	rdb, err := c.conn()
	if err != nil {
		return err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return errors.NewErrorDetailsWithCause("Failed to ping Redis", errors.RedisPingError, "ping", err)
	}
	return nil
}

func (c *client) SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error) {
	rdb, err := c.conn()
	if err != nil {
		return false, err
	}
	ok, err := rdb.SetNX(ctx, key, value, expiration).Result()
	if err != nil {
		return false, errors.NewErrorDetailsWithCause("Failed to set value with NX in Redis", errors.RedisSetNXError, "setnx", err)
	}
	return ok, nil
}

func (c *client) Del(ctx context.Context, keys ...string) (int64, error) {
	rdb, err := c.conn()
	if err != nil {
		return 0, err
	}
	deleted, err := rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.NewErrorDetailsWithCause("Failed to delete keys from Redis", errors.RedisDelError, "del", err)
	}
	return deleted, nil
}

// HGet returns an empty string without error when the field does not exist.
func (c *client) HGet(ctx context.Context, key, field string) (string, error) {
	rdb, err := c.conn()
	if err != nil {
		return "", err
	}
	val, err := rdb.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.NewErrorDetailsWithCause("Failed to get field from hash in Redis", errors.RedisHGetError, "hget", err)
	}
	return val, nil
}

func (c *client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rdb, err := c.conn()
	if err != nil {
		return nil, err
	}
	values, err := rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, errors.NewErrorDetailsWithCause("Failed to get hash from Redis", errors.RedisHGetAllError, "hgetall", err)
	}
	return values, nil
}

// HSet writes every field of values with a single HSET command.
func (c *client) HSet(ctx context.Context, key string, values map[string]any) (int64, error) {
	rdb, err := c.conn()
	if err != nil {
		return 0, err
	}
	affected, err := rdb.HSet(ctx, key, values).Result()
	if err != nil {
		return 0, errors.NewErrorDetailsWithCause("Failed to set fields in hash in Redis", errors.RedisHSetError, "hset", err)
	}
	return affected, nil
}
