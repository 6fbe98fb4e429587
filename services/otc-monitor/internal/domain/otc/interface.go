package otc

import (
	"context"

	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/execution"
)

//go:generate mockgen -source=interface.go -destination=mock/monitor_mock.go -package=mock

// Monitor owns the refresh and evaluate cycle over resting OTC orders.
type Monitor interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Refresh(ctx context.Context) error
	EvaluateSymbol(ctx context.Context, symbol string) []execution.Trigger
	Index() map[string]int
	Initialized() bool
}
