package bootstrap

import (
	crossrateUc "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/usecase/crossrate"
	execUc "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/usecase/execution"
	otcmonitorUc "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/usecase/otcmonitor"
	pricecacheUc "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/usecase/pricecache"

	executionDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/execution"
	otcDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/otc"
	priceDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price"
)

// Usecase is the usecase for the otc monitor service.
type Usecase struct {
	PriceCache priceDomain.Cache
	Resolver   priceDomain.Resolver
	Executor   executionDomain.Executor
	Monitor    otcDomain.Monitor
}

// registerUsecase registers the usecase.
func (b *Bootstrap) registerUsecase(writer execUc.MessageWriter) {
	cfg := b.Config

	b.Usecase.PriceCache = pricecacheUc.NewCache(b.Repository.PriceStore, b.Logger, pricecacheUc.Options{
		FlushInterval: cfg.PriceCache.FlushInterval,
	})
	b.Usecase.Resolver = crossrateUc.NewResolver(b.Repository.PriceStore, b.Logger, cfg.Monitor.StableAsset)

	if cfg.Execution.Enabled && writer != nil {
		b.Usecase.Executor = execUc.NewPublisher(writer, b.Redis, b.Logger, execUc.Config{
			ClaimPrefix: cfg.Execution.ClaimPrefix,
			ClaimTTL:    cfg.Execution.ClaimTTL,
		})
	} else {
		b.Usecase.Executor = execUc.NewLogExecutor(b.Logger)
	}

	b.Usecase.Monitor = otcmonitorUc.NewMonitor(
		b.Repository.OrderRepository,
		b.Usecase.Resolver,
		b.Usecase.Executor,
		b.Logger,
		otcmonitorUc.Options{
			RefreshInterval: cfg.Monitor.RefreshInterval,
			Broker:          cfg.Monitor.Broker,
		},
	)
}
