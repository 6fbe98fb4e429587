package pricefeed

import (
	"context"

	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=interface.go -destination=mock/reader_mock.go -package=mock

// Consumer forwards raw price messages from an upstream feed into the price cache.
type Consumer interface {
	// Start blocks until ctx is done or Stop is called.
	Start(ctx context.Context)
	Stop() error
}

// MessageReader is the subset of *kafka.Reader the Kafka consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}
