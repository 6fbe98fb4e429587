package execution

import (
	"context"

	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	executionDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/execution"
)

type logExecutor struct {
	logger logger.Interface
}

// NewLogExecutor creates an Executor that only records the trigger.
func NewLogExecutor(logger logger.Interface) executionDomain.Executor {
	return &logExecutor{logger: logger}
}

func (e *logExecutor) Execute(ctx context.Context, trigger executionDomain.Trigger) error {
	e.logger.InfoContext(ctx, "Order triggered",
		logger.NewField("order_id", trigger.Order.ID),
		logger.NewField("symbol", trigger.Order.Symbol),
		logger.NewField("side", trigger.Order.Side),
		logger.NewField("limit_price", trigger.LimitPrice),
		logger.NewField("market_price", trigger.MarketPrice),
	)
	return nil
}

func (e *logExecutor) Release(ctx context.Context, orderID string) error {
	return nil
}
