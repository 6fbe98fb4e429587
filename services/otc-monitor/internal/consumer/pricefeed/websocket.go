package pricefeed

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	pkgErrors "github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	priceDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/pkg/config"
)

// pingWriteTimeout bounds writing a single ping frame.
const pingWriteTimeout = 5 * time.Second

// WebsocketOptions configures a WebsocketConsumer. A positive ReadTimeout also
// turns on keepalive pings every ReadTimeout/2.
type WebsocketOptions struct {
	URL            string
	Subscribe      string
	ReadTimeout    time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// WebsocketOptionsFromConfig maps the feed configuration onto WebsocketOptions.
func WebsocketOptionsFromConfig(config config.PriceFeedConfig) WebsocketOptions {
	return WebsocketOptions{
		URL:            config.WSURL,
		Subscribe:      config.WSSubscribe,
		ReadTimeout:    config.WSReadTimeout,
		InitialBackoff: config.WSInitialBackoff,
		MaxBackoff:     config.WSMaxBackoff,
	}
}

// WebsocketConsumer reads price messages from a websocket feed and reconnects
// with capped exponential backoff whenever the connection drops.
type WebsocketConsumer struct {
	opts   WebsocketOptions
	dialer *websocket.Dialer

	cache  priceDomain.Cache
	logger logger.Interface

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewWebsocketConsumer creates a new WebsocketConsumer.
func NewWebsocketConsumer(opts WebsocketOptions, cache priceDomain.Cache, logger logger.Interface) *WebsocketConsumer {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}

	return &WebsocketConsumer{
		opts:   opts,
		dialer: websocket.DefaultDialer,
		cache:  cache,
		logger: logger,
	}
}

// Start starts the WebsocketConsumer.
func (c *WebsocketConsumer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	backoff := c.opts.InitialBackoff
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			c.logger.InfoContext(ctx, "price feed stopped", logger.NewField("url", c.opts.URL))
			return
		}

		c.logger.ErrorContext(ctx,
			pkgErrors.NewErrorDetailsWithCause("Price feed connection lost", pkgErrors.PriceFeedError, c.opts.URL, err),
			logger.NewField("retry_in", backoff.String()),
		)

		if connected {
			backoff = c.opts.InitialBackoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, c.opts.MaxBackoff)
	}
}

// session runs one connection until it fails. connected reports whether the
// dial succeeded.
func (c *WebsocketConsumer) session(ctx context.Context) (connected bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	c.logger.InfoContext(ctx, "connected to price feed", logger.NewField("url", c.opts.URL))

	if c.opts.Subscribe != "" {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(c.opts.Subscribe)); err != nil {
			return true, err
		}
	}

	if c.opts.ReadTimeout > 0 {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		})

		pingCtx, cancelPing := context.WithCancel(ctx)
		defer cancelPing()
		go c.pingLoop(pingCtx, conn, c.opts.ReadTimeout/2)
	}

	for {
		if c.opts.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout)); err != nil {
				return true, err
			}
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}

		c.cache.Ingest(data)
	}
}

// pingLoop keeps the connection alive until ctx is done. A failed ping closes
// the connection, which ends the session's read loop.
func (c *WebsocketConsumer) pingLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingWriteTimeout)); err != nil {
				c.logger.WarnContext(ctx, "price feed ping failed", logger.NewField("url", c.opts.URL), logger.NewField("error", err.Error()))
				_ = conn.Close()
				return
			}
		}
	}
}

// Stop stops the WebsocketConsumer.
func (c *WebsocketConsumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	return nil
}
