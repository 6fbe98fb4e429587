package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/websocket"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	mockPrice "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedServer upgrades every request, records the first client frame, sends
// frames and then either holds or drops the connection.
func feedServer(t *testing.T, frames []string, hold bool, subscribed chan<- string, connections *atomic.Int32) *httptest.Server {
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		connections.Add(1)

		if subscribed != nil {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case subscribed <- string(msg):
			default:
			}
		}

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}

		if hold {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebsocketConsumer_ForwardsFramesAfterSubscribing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var connections atomic.Int32
	subscribed := make(chan string, 1)
	server := feedServer(t, []string{`{"symbol":"btc","data":1}`, `{"data":{"eth":"2"}}`}, true, subscribed, &connections)
	defer server.Close()

	received := make(chan string, 2)
	cache := mockPrice.NewMockCache(ctrl)
	cache.EXPECT().Ingest(gomock.Any()).Do(func(raw []byte) { received <- string(raw) }).Times(2)

	consumer := NewWebsocketConsumer(WebsocketOptions{
		URL:         wsURL(server),
		Subscribe:   `{"op":"subscribe","channel":"prices"}`,
		ReadTimeout: time.Second,
	}, cache, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(done)
	}()

	assert.Equal(t, `{"op":"subscribe","channel":"prices"}`, <-subscribed)
	assert.Equal(t, `{"symbol":"btc","data":1}`, <-received)
	assert.Equal(t, `{"data":{"eth":"2"}}`, <-received)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, int32(1), connections.Load())
}

func TestWebsocketConsumer_PingsKeepIdleFeedAlive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var connections, pings atomic.Int32
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		connections.Add(1)

		conn.SetPingHandler(func(data string) error {
			pings.Add(1)
			return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	consumer := NewWebsocketConsumer(WebsocketOptions{
		URL:         wsURL(server),
		ReadTimeout: 200 * time.Millisecond,
	}, mockPrice.NewMockCache(ctrl), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(done)
	}()

	// Three pings span more than one read timeout without any data frame.
	assert.Eventually(t, func() bool { return pings.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), connections.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestWebsocketConsumer_ReconnectsAfterDrop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var connections atomic.Int32
	server := feedServer(t, []string{`{"symbol":"btc","data":1}`}, false, nil, &connections)
	defer server.Close()

	var ingested atomic.Int32
	cache := mockPrice.NewMockCache(ctrl)
	cache.EXPECT().Ingest([]byte(`{"symbol":"btc","data":1}`)).Do(func(raw []byte) { ingested.Add(1) }).MinTimes(2)

	consumer := NewWebsocketConsumer(WebsocketOptions{
		URL:            wsURL(server),
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
	}, cache, logger.NewNopLogger())

	done := make(chan struct{})
	go func() {
		consumer.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return ingested.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, connections.Load(), int32(2))

	require.NoError(t, consumer.Stop())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestWebsocketConsumer_DialFailureBacksOff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	consumer := NewWebsocketConsumer(WebsocketOptions{
		URL:            "ws://127.0.0.1:1/prices",
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	}, mockPrice.NewMockCache(ctrl), logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
