package bootstrap

import (
	orderInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/postgresql/order"
	priceInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/redis/price"
)

// Repository is the repository for the otc monitor service.
type Repository struct {
	OrderRepository orderInfra.OrderRepository
	PriceStore      priceInfra.PriceStore
}

// registerRepository registers the repository.
func (b *Bootstrap) registerRepository() {
	b.Repository.OrderRepository = orderInfra.NewRepository(b.PostgreSQL, b.Logger)
	b.Repository.PriceStore = priceInfra.NewStore(b.Redis, b.Config.PriceCache.Key, b.Logger)
}
