package execution

import "context"

//go:generate mockgen -source=interface.go -destination=mock/executor_mock.go -package=mock

// Executor hands a triggered order off for execution.
type Executor interface {
	Execute(ctx context.Context, trigger Trigger) error
	// Release forgets the hand-off of an order that has left the open set.
	Release(ctx context.Context, orderID string) error
}
