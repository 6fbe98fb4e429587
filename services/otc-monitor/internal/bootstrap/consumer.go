package bootstrap

import (
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/consumer/pricefeed"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/pkg/config"
)

// registerConsumer selects the price feed configured for this process.
func (b *Bootstrap) registerConsumer(reader pricefeed.MessageReader) {
	feed := b.Config.PriceFeed

	switch feed.Source {
	case config.FeedSourceWebsocket:
		b.Consumer = pricefeed.NewWebsocketConsumer(pricefeed.WebsocketOptionsFromConfig(feed), b.Usecase.PriceCache, b.Logger)
	default:
		if reader != nil {
			b.Consumer = pricefeed.NewKafkaConsumer(reader, feed.Topic, b.Usecase.PriceCache, b.Logger)
		}
	}
}
