package order

import "context"

//go:generate mockgen -source=interface.go -destination=mock/repository_mock.go -package=mock

// OrderRepository is the repository for the order.
type OrderRepository interface {
	List(ctx context.Context, filter Filter) (*Page, error)
	Store(ctx context.Context, order *Order) error
}
