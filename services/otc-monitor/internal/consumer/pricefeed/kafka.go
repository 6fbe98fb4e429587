package pricefeed

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	pkgErrors "github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	priceDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/pkg/config"
)

const defaultReadRetryDelay = time.Second

// KafkaConsumer is the consumer for the price topic.
type KafkaConsumer struct {
	reader MessageReader
	topic  string

	cache  priceDomain.Cache
	logger logger.Interface

	retryDelay time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewKafkaReader creates a consumer-group reader for the price topic.
func NewKafkaReader(config config.PriceFeedConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		GroupID:     config.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
}

// NewKafkaConsumer creates a new KafkaConsumer.
func NewKafkaConsumer(reader MessageReader, topic string, cache priceDomain.Cache, logger logger.Interface) *KafkaConsumer {
	return &KafkaConsumer{
		reader:     reader,
		topic:      topic,
		cache:      cache,
		logger:     logger,
		retryDelay: defaultReadRetryDelay,
	}
}

// Start starts the KafkaConsumer.
func (c *KafkaConsumer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	c.logger.InfoContext(ctx, "starting price consumer",
		logger.NewField("action", "price_consumer_start"),
		logger.NewField("topic", c.topic),
	)

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.InfoContext(ctx, "price consumer stopped", logger.NewField("action", "price_consumer_stop"))
				return
			}

			c.logger.ErrorContext(ctx,
				pkgErrors.NewErrorDetailsWithCause("Failed to read price message", pkgErrors.PriceFeedError, c.topic, err),
				logger.NewField("action", "read_message"),
			)

			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
			continue
		}

		c.cache.Ingest(msg.Value)
	}
}

// Stop stops the KafkaConsumer.
func (c *KafkaConsumer) Stop() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	return c.reader.Close()
}
