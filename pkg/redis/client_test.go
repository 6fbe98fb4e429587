package redis

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestClient_ConnectValidation(t *testing.T) {
	testCases := []struct {
		name     string
		mutateFn func(cfg *Config)
		message  string
	}{
		{
			name:     "empty addresses",
			mutateFn: func(cfg *Config) { cfg.Addrs = nil },
			message:  "Redis addresses are empty",
		},
		{
			name:     "unknown mode",
			mutateFn: func(cfg *Config) { cfg.Mode = "sentinel" },
			message:  "Invalid Redis mode",
		},
		{
			name:     "zero connect timeout",
			mutateFn: func(cfg *Config) { cfg.ConnectTimeout = 0 },
			message:  "Invalid Redis connect timeout",
		},
		{
			name:     "zero pool size",
			mutateFn: func(cfg *Config) { cfg.PoolSize = 0 },
			message:  "Invalid Redis pool size",
		},
		{
			name:     "negative retry backoff",
			mutateFn: func(cfg *Config) { cfg.MaxRetryBackoff = -time.Second },
			message:  "Invalid Redis maximum retry backoff",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutateFn(cfg)

			err := NewClient(logger.NewNopLogger(), cfg).Connect(context.Background())
			assert.EqualError(t, err, tc.message)
			assert.True(t, errors.ErrorCodeEquals(err, errors.RedisConfigError))
		})
	}
}

func TestClient_NilConfig(t *testing.T) {
	err := NewClient(logger.NewNopLogger(), nil).Connect(context.Background())
	assert.True(t, errors.ErrorCodeEquals(err, errors.RedisConfigError))
}

func TestClient_CommandsBeforeConnect(t *testing.T) {
	ctx := context.Background()
	c := NewClient(logger.NewNopLogger(), DefaultConfig())

	_, err := c.HGet(ctx, "otc:prices", "btc")
	assert.True(t, errors.ErrorCodeEquals(err, errors.RedisConnectionError))

	_, err = c.HSet(ctx, "otc:prices", map[string]any{"btc": "65000"})
	assert.True(t, errors.ErrorCodeEquals(err, errors.RedisConnectionError))

	_, err = c.SetNX(ctx, "otc:claimed:1", "1", time.Minute)
	assert.True(t, errors.ErrorCodeEquals(err, errors.RedisConnectionError))

	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Disconnect(ctx))
}

func TestClient_InterfaceSurface(t *testing.T) {
	clientType := reflect.TypeOf((*Client)(nil)).Elem()

	var methods []string
	for i := 0; i < clientType.NumMethod(); i++ {
		methods = append(methods, clientType.Method(i).Name)
	}

	assert.Equal(t, []string{"Connect", "Del", "Disconnect", "HGet", "HGetAll", "HSet", "Ping", "Reconnect", "SetNX"}, methods)
}

func TestClient_ReconnectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(logger.NewNopLogger(), DefaultConfig())
	assert.False(t, c.Reconnect(ctx))
}
