package execution

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"

	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/muhammadchandra19/otc-monitor/pkg/redis"
	executionDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/execution"
)

// ErrAlreadyClaimed is returned for an order that an earlier trigger already handed off.
var ErrAlreadyClaimed = errors.NewErrorDetails("Order already handed off for execution", string(errors.ExecutionAlreadyClaimed), "execute")

// releaseTimeout bounds a claim release, which runs detached from the
// caller's cancellation.
const releaseTimeout = 5 * time.Second

// Config configures a publisher. A zero ClaimTTL keeps claims until Release.
type Config struct {
	ClaimPrefix string
	ClaimTTL    time.Duration
}

type publisher struct {
	writer MessageWriter
	claims redis.Client
	logger logger.Interface
	config Config
}

// NewPublisher creates an Executor that claims each order in Redis and then
// publishes an execution request to Kafka.
func NewPublisher(writer MessageWriter, claims redis.Client, logger logger.Interface, config Config) executionDomain.Executor {
	return &publisher{
		writer: writer,
		claims: claims,
		logger: logger,
		config: config,
	}
}

// NewKafkaWriter creates the writer for the execution topic. Messages with the
// same order id land on the same partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// Execute claims the order and publishes its execution request. The claim is
// released when publishing fails so a later trigger can retry, even when the
// failure came from ctx being cancelled.
func (p *publisher) Execute(ctx context.Context, trigger executionDomain.Trigger) error {
	order := trigger.Order
	key := p.config.ClaimPrefix + order.ID
	requestID := ulid.Make().String()

	claimed, err := p.claims.SetNX(ctx, key, requestID, p.config.ClaimTTL)
	if err != nil {
		return errors.NewErrorDetailsWithCause("Failed to claim order for execution", errors.ExecutionClaimError, order.ID, err)
	}
	if !claimed {
		return ErrAlreadyClaimed
	}

	payload, err := json.Marshal(executionDomain.NewRequest(requestID, trigger))
	if err != nil {
		p.release(ctx, key)
		return errors.TracerFromError(err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "request_id", Value: []byte(requestID)},
		},
	})
	if err != nil {
		p.release(ctx, key)
		return errors.NewErrorDetailsWithCause("Failed to publish execution request", errors.ExecutionPublishError, order.ID, err)
	}

	p.logger.InfoContext(ctx, "Published execution request",
		logger.NewField("order_id", order.ID),
		logger.NewField("symbol", order.Symbol),
		logger.NewField("execution_request_id", requestID),
	)

	return nil
}

// Release drops the claim of an order that is no longer open, so a future
// trigger of the same id would be published again.
func (p *publisher) Release(ctx context.Context, orderID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if _, err := p.claims.Del(ctx, p.config.ClaimPrefix+orderID); err != nil {
		return errors.NewErrorDetailsWithCause("Failed to release execution claim", errors.ExecutionClaimError, orderID, err)
	}
	return nil
}

func (p *publisher) release(ctx context.Context, key string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if _, err := p.claims.Del(releaseCtx, key); err != nil {
		p.logger.ErrorContext(ctx, errors.TracerFromError(err), logger.NewField("claim", key))
	}
}
