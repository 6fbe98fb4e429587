package execution

import (
	"context"

	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=interface.go -destination=mock/writer_mock.go -package=mock

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}
