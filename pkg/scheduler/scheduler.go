package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
)

// ErrAlreadyStarted is returned by Start on a scheduler that is already running.
var ErrAlreadyStarted = errors.NewTracer("scheduler already started")

// Job is one unit of periodic work.
type Job func(ctx context.Context)

// Options configures a Scheduler.
type Options struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Clock      clock.Clock
}

// Scheduler runs a Job on a fixed interval from a single goroutine, so two
// runs never overlap. Ticks that arrive while a run is in progress collapse
// into one pending run. Cancelling the Start context stops new runs only; the
// in-flight run keeps a live context until Stop gives up waiting for it.
type Scheduler struct {
	name       string
	interval   time.Duration
	runOnStart bool
	clock      clock.Clock
	job        Job
	logger     logger.Interface

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	abort   context.CancelFunc
	wg      sync.WaitGroup

	runs atomic.Int64
}

// New creates a Scheduler. A nil Options.Clock uses the wall clock.
func New(job Job, log logger.Interface, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	return &Scheduler{
		name:       opts.Name,
		interval:   opts.Interval,
		runOnStart: opts.RunOnStart,
		clock:      opts.Clock,
		job:        job,
		logger:     log,
	}
}

// Start begins scheduling. The ticker is armed before Start returns.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.interval <= 0 {
		return fmt.Errorf("scheduler %s: interval must be positive, got %s", s.name, s.interval)
	}

	s.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	jobCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel, s.abort = cancel, abort
	ticker := s.clock.Ticker(s.interval)

	s.wg.Add(1)
	go s.loop(loopCtx, jobCtx, ticker)

	s.logger.Info("Scheduler started",
		logger.NewField("scheduler", s.name),
		logger.NewField("interval", s.interval.String()),
	)

	return nil
}

func (s *Scheduler) loop(ctx, jobCtx context.Context, ticker *clock.Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	if s.runOnStart {
		s.run(jobCtx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.run(jobCtx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(errors.NewTracer(fmt.Sprintf("scheduled job panicked: %v", p)),
				logger.NewField("scheduler", s.name),
			)
		}
		s.runs.Add(1)
	}()

	s.job(ctx)
}

// Runs returns how many times the job has completed, panics included.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Stop cancels scheduling and waits for the in-flight run, bounded by ctx.
// The run's context is cancelled only once it has finished or ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, abort := s.cancel, s.abort
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		abort()
		s.logger.Info("Scheduler stopped", logger.NewField("scheduler", s.name))
		return nil
	case <-ctx.Done():
		abort()
		s.logger.Warn("Scheduler stop timeout exceeded", logger.NewField("scheduler", s.name))
		return ctx.Err()
	}
}
