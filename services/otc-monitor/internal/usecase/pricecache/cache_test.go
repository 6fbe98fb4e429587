package pricecache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/mock/gomock"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	mockLogger "github.com/muhammadchandra19/otc-monitor/pkg/logger/mock"
	mockStore "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/redis/price/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func newTestCache(t *testing.T) (*cache, *mockStore.MockPriceStore, *clock.Mock) {
	ctrl := gomock.NewController(t)
	store := mockStore.NewMockPriceStore(ctrl)
	mock := clock.NewMock()

	c := NewCache(store, logger.NewNopLogger(), Options{FlushInterval: time.Second, Clock: mock}).(*cache)
	return c, store, mock
}

func TestCache_LastWriteWinsWithinWindow(t *testing.T) {
	c, store, mock := newTestCache(t)

	var writes atomic.Int32
	store.EXPECT().
		SetMany(gomock.Any(), map[string]string{"btc": "65002", "eth": "2500"}).
		DoAndReturn(func(ctx context.Context, prices map[string]string) error {
			writes.Add(1)
			return nil
		}).
		Times(1)

	c.Ingest([]byte(`{"symbol":"btc","data":65000}`))
	c.Ingest([]byte(`{"data":{"BTC":"65001","eth":{"price":2500}}}`))
	c.Ingest([]byte(`{"symbol":"btc","data":{"last":65002}}`))
	assert.Equal(t, 2, c.Pending())

	mock.Add(999 * time.Millisecond)
	assert.Never(t, func() bool { return writes.Load() > 0 }, 50*time.Millisecond, tick)

	mock.Add(time.Millisecond)
	assert.Eventually(t, func() bool { return writes.Load() == 1 }, waitFor, tick)
	assert.Equal(t, 0, c.Pending())
}

func TestCache_MalformedInputLeavesBatchUnchanged(t *testing.T) {
	c, _, mock := newTestCache(t)

	for _, raw := range []string{
		`not json`,
		`{"symbol":"btc","data":"NaN"}`,
		`{"data":{"btc":"Infinity"}}`,
		`{"data":42}`,
		`{}`,
	} {
		c.Ingest([]byte(raw))
	}

	assert.Equal(t, 0, c.Pending())

	c.mu.Lock()
	armed := c.timer != nil
	c.mu.Unlock()
	assert.False(t, armed)

	// A SetMany call here would fail the strict mock.
	mock.Add(5 * time.Second)
}

func TestCache_FlushEmptyBatchDoesNotWrite(t *testing.T) {
	c, _, _ := newTestCache(t)
	c.Flush(context.Background())
}

func TestCache_StoreErrorIsLoggedAndSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockStore.NewMockPriceStore(ctrl)
	log := mockLogger.NewMockInterface(ctrl)

	c := NewCache(store, log, Options{FlushInterval: time.Second, Clock: clock.NewMock()})

	gomock.InOrder(
		store.EXPECT().SetMany(gomock.Any(), map[string]string{"btc": "1"}).Return(errors.New("READONLY")),
		log.EXPECT().Error(gomock.Any(), gomock.Any()),
		store.EXPECT().SetMany(gomock.Any(), map[string]string{"eth": "2"}).Return(nil),
		log.EXPECT().Debug("Flushed prices", gomock.Any()),
	)

	c.Ingest([]byte(`{"symbol":"btc","data":1}`))
	c.Flush(context.Background())
	assert.Equal(t, 0, c.Pending())

	c.Ingest([]byte(`{"symbol":"eth","data":2}`))
	c.Flush(context.Background())
}

func TestCache_IngestDuringFlushLandsInNextBatch(t *testing.T) {
	c, store, _ := newTestCache(t)

	inFlight := make(chan struct{})
	release := make(chan struct{})

	gomock.InOrder(
		store.EXPECT().
			SetMany(gomock.Any(), map[string]string{"btc": "1"}).
			DoAndReturn(func(ctx context.Context, prices map[string]string) error {
				close(inFlight)
				<-release
				return nil
			}),
		store.EXPECT().SetMany(gomock.Any(), map[string]string{"btc": "2"}).Return(nil),
	)

	c.Ingest([]byte(`{"symbol":"btc","data":1}`))

	done := make(chan struct{})
	go func() {
		c.Flush(context.Background())
		close(done)
	}()

	<-inFlight
	c.Ingest([]byte(`{"symbol":"btc","data":2}`))
	assert.Equal(t, 1, c.Pending())

	close(release)
	<-done

	c.Flush(context.Background())
	assert.Equal(t, 0, c.Pending())
}

func TestCache_OneTimerPerWindow(t *testing.T) {
	c, store, mock := newTestCache(t)

	var writes atomic.Int32
	store.EXPECT().SetMany(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, prices map[string]string) error {
		writes.Add(1)
		return nil
	}).Times(2)

	c.Ingest([]byte(`{"symbol":"btc","data":1}`))
	mock.Add(500 * time.Millisecond)
	c.Ingest([]byte(`{"symbol":"eth","data":1}`))

	mock.Add(500 * time.Millisecond)
	assert.Eventually(t, func() bool { return writes.Load() == 1 }, waitFor, tick)

	c.Ingest([]byte(`{"symbol":"sol","data":1}`))
	mock.Add(time.Second)
	assert.Eventually(t, func() bool { return writes.Load() == 2 }, waitFor, tick)
}

func TestCache_CloseFlushesAndStopsScheduling(t *testing.T) {
	c, store, mock := newTestCache(t)

	store.EXPECT().SetMany(gomock.Any(), map[string]string{"btc": "1"}).Return(nil).Times(1)

	c.Ingest([]byte(`{"symbol":"btc","data":1}`))
	c.Close(context.Background())

	c.Ingest([]byte(`{"symbol":"eth","data":2}`))
	require.Equal(t, 0, c.Pending())

	mock.Add(5 * time.Second)
}
