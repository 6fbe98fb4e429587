package bootstrap

import (
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/muhammadchandra19/otc-monitor/pkg/postgresql"
	"github.com/muhammadchandra19/otc-monitor/pkg/redis"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/consumer/pricefeed"
	execUc "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/usecase/execution"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/pkg/config"
)

// Bootstrap is the bootstrap for the otc monitor service.
type Bootstrap struct {
	Usecase    Usecase
	Logger     logger.Interface
	RPC        RPC
	Repository Repository
	Consumer   pricefeed.Consumer

	Config     *config.Config
	Redis      redis.Client
	PostgreSQL postgresql.PostgreSQLClient
}

// BoostrapConfig is the config for the bootstrap.
type BoostrapConfig struct {
	Config     *config.Config
	Redis      redis.Client
	PostgreSQL postgresql.PostgreSQLClient
	Logger     logger.Interface

	// ExecutionWriter publishes triggered orders. When nil, triggers are only logged.
	ExecutionWriter execUc.MessageWriter
	// FeedReader is required when the price feed source is kafka.
	FeedReader pricefeed.MessageReader
}

// Init initializes the bootstrap.
func (b *Bootstrap) Init(config BoostrapConfig) Bootstrap {
	b.Config = config.Config
	b.Redis = config.Redis
	b.PostgreSQL = config.PostgreSQL
	b.Logger = config.Logger

	b.registerRepository()
	b.registerUsecase(config.ExecutionWriter)
	b.registerConsumer(config.FeedReader)
	b.registerRPC()

	return *b
}
