package price

import (
	"context"

	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/muhammadchandra19/otc-monitor/pkg/redis"
)

type store struct {
	client redis.Client
	key    string
	logger logger.Interface
}

// NewStore creates a PriceStore backed by the hash at key.
func NewStore(client redis.Client, key string, logger logger.Interface) PriceStore {
	return &store{
		client: client,
		key:    key,
		logger: logger,
	}
}

func (s *store) Get(ctx context.Context, asset string) (string, bool, error) {
	value, err := s.client.HGet(ctx, s.key, asset)
	if err != nil {
		return "", false, errors.NewErrorDetailsWithCause("Failed to read price", errors.PriceStoreError, asset, err)
	}
	return value, value != "", nil
}

func (s *store) SetMany(ctx context.Context, prices map[string]string) error {
	if len(prices) == 0 {
		return nil
	}

	values := make(map[string]any, len(prices))
	for asset, price := range prices {
		values[asset] = price
	}

	added, err := s.client.HSet(ctx, s.key, values)
	if err != nil {
		return errors.NewErrorDetailsWithCause("Failed to write prices", errors.PriceStoreError, s.key, err)
	}

	s.logger.Debug("Wrote prices",
		logger.NewField("key", s.key),
		logger.NewField("fields", len(values)),
		logger.NewField("added", added),
	)

	return nil
}

func (s *store) All(ctx context.Context) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, s.key)
	if err != nil {
		return nil, errors.NewErrorDetailsWithCause("Failed to read prices", errors.PriceStoreError, s.key, err)
	}
	return values, nil
}
