package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func TestScheduler_RunOnStartThenInterval(t *testing.T) {
	mock := clock.NewMock()
	var calls atomic.Int32

	s := New(func(ctx context.Context) { calls.Add(1) }, logger.NewNopLogger(), Options{
		Name:       "refresh",
		Interval:   2 * time.Minute,
		RunOnStart: true,
		Clock:      mock,
	})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return s.Runs() == 1 }, waitFor, tick)

	mock.Add(time.Minute)
	assert.Never(t, func() bool { return s.Runs() > 1 }, 50*time.Millisecond, tick)

	mock.Add(time.Minute)
	assert.Eventually(t, func() bool { return s.Runs() == 2 }, waitFor, tick)
	assert.Equal(t, int32(2), calls.Load())
}

func TestScheduler_WithoutRunOnStart(t *testing.T) {
	mock := clock.NewMock()

	s := New(func(ctx context.Context) {}, logger.NewNopLogger(), Options{Interval: time.Second, Clock: mock})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.Never(t, func() bool { return s.Runs() > 0 }, 50*time.Millisecond, tick)

	mock.Add(time.Second)
	assert.Eventually(t, func() bool { return s.Runs() == 1 }, waitFor, tick)
}

func TestScheduler_StartTwice(t *testing.T) {
	s := New(func(ctx context.Context) {}, logger.NewNopLogger(), Options{Interval: time.Second, Clock: clock.NewMock()})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestScheduler_InvalidInterval(t *testing.T) {
	s := New(func(ctx context.Context) {}, logger.NewNopLogger(), Options{Clock: clock.NewMock()})
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_RunsNeverOverlap(t *testing.T) {
	mock := clock.NewMock()
	release := make(chan struct{})
	var inFlight, maxInFlight atomic.Int32

	s := New(func(ctx context.Context) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
	}, logger.NewNopLogger(), Options{Interval: time.Second, RunOnStart: true, Clock: mock})

	require.NoError(t, s.Start(context.Background()))

	for range 5 {
		mock.Add(time.Second)
	}
	close(release)

	assert.Eventually(t, func() bool { return s.Runs() >= 2 }, waitFor, tick)
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.LessOrEqual(t, s.Runs(), int64(2))
}

func TestScheduler_StopWaitsForInFlightRun(t *testing.T) {
	mock := clock.NewMock()
	started := make(chan struct{})
	release := make(chan struct{})

	s := New(func(ctx context.Context) {
		close(started)
		<-release
	}, logger.NewNopLogger(), Options{Interval: time.Second, RunOnStart: true, Clock: mock})
	require.NoError(t, s.Start(context.Background()))
	<-started

	timeout, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(timeout), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, s.Stop(context.Background()))

	mock.Add(time.Second)
	assert.Never(t, func() bool { return s.Runs() > 1 }, 50*time.Millisecond, tick)
}

func TestScheduler_CancelledStartContextLetsRunFinish(t *testing.T) {
	mock := clock.NewMock()
	started := make(chan struct{})
	release := make(chan struct{})
	var runErr atomic.Value

	parent, cancelParent := context.WithCancel(context.Background())
	s := New(func(ctx context.Context) {
		close(started)
		<-release
		runErr.Store(fmt.Sprint(ctx.Err()))
	}, logger.NewNopLogger(), Options{Interval: time.Second, RunOnStart: true, Clock: mock})
	require.NoError(t, s.Start(parent))
	<-started

	cancelParent()
	close(release)
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, "<nil>", runErr.Load())
	mock.Add(time.Second)
	assert.Never(t, func() bool { return s.Runs() > 1 }, 50*time.Millisecond, tick)
}

func TestScheduler_StopTimeoutCancelsRun(t *testing.T) {
	started := make(chan struct{})
	aborted := make(chan struct{})

	s := New(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(aborted)
	}, logger.NewNopLogger(), Options{Interval: time.Second, RunOnStart: true, Clock: clock.NewMock()})
	require.NoError(t, s.Start(context.Background()))
	<-started

	timeout, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(timeout), context.DeadlineExceeded)

	select {
	case <-aborted:
	case <-time.After(waitFor):
		t.Fatal("in-flight run was not cancelled after the stop timeout")
	}
}

func TestScheduler_PanicIsRecovered(t *testing.T) {
	mock := clock.NewMock()
	var calls atomic.Int32

	s := New(func(ctx context.Context) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	}, logger.NewNopLogger(), Options{Interval: time.Second, RunOnStart: true, Clock: mock})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return s.Runs() == 1 }, waitFor, tick)
	mock.Add(time.Second)
	assert.Eventually(t, func() bool { return s.Runs() == 2 }, waitFor, tick)
}
