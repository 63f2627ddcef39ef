package sources

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/ingest"
)

var (
	// ErrCoordinatorRequired is returned when a coordinator is not provided.
	ErrCoordinatorRequired = errors.New("ingestion coordinator required")

	// ErrNoSources is returned when the scheduler is started without sources.
	ErrNoSources = errors.New("at least one source required")
)

// Scheduler polls sources on a fixed interval and feeds their items into the
// ingestion coordinator. Each source runs on a worker pool, so one slow or
// failing source does not block the others.
type Scheduler struct {
	coordinator *ingest.Coordinator
	sources     []Source
	interval    time.Duration
	pool        *ants.Pool
	logger      *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler) error

// WithInterval sets the polling interval. Default is 15 minutes.
func WithInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) error {
		if interval <= 0 {
			return errors.New("interval must be positive")
		}
		s.interval = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScheduler creates a scheduler over the given sources.
func NewScheduler(coordinator *ingest.Coordinator, srcs []Source, opts ...SchedulerOption) (*Scheduler, error) {
	if coordinator == nil {
		return nil, ErrCoordinatorRequired
	}
	if len(srcs) == 0 {
		return nil, ErrNoSources
	}

	pool, err := ants.NewPool(len(srcs))
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		coordinator: coordinator,
		sources:     srcs,
		interval:    15 * time.Minute,
		pool:        pool,
		logger:      slog.Default().With("component", "scheduler"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			pool.Release()
			return nil, err
		}
	}

	return s, nil
}

// Start begins polling. The first round runs immediately; subsequent rounds
// run every interval until Stop is called or the context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go func() {
		defer close(s.done)

		s.runRound(runCtx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.runRound(runCtx)
			}
		}
	}()
}

// RunOnce polls every source a single time and waits for completion.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runRound(ctx)
}

// runRound fans sources out onto the pool and waits for the round to finish.
func (s *Scheduler) runRound(ctx context.Context) {
	var wg sync.WaitGroup
	for _, source := range s.sources {
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			s.poll(ctx, source)
		}); err != nil {
			wg.Done()
			s.logger.Error("error scheduling source", "source", source.Name(), "err", err)
		}
	}
	wg.Wait()
}

// poll fetches one source and ingests its items. Failures are logged and
// confined to the source.
func (s *Scheduler) poll(ctx context.Context, source Source) {
	items, err := source.Fetch(ctx)
	if err != nil {
		s.logger.Error("source fetch failed", "source", source.Name(), "err", err)
		return
	}

	ingested := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.coordinator.Ingest(ctx, item); err != nil {
			if errors.Is(err, ingest.ErrVectorDegraded) {
				ingested++
				continue
			}
			if errors.Is(err, core.ErrInvalidContentItem) {
				s.logger.Warn("skipping invalid item", "source", source.Name(), "err", err)
				continue
			}
			s.logger.Error("error ingesting item", "source", source.Name(), "err", err)
			continue
		}
		ingested++
	}

	s.logger.Info("polled source", "source", source.Name(), "fetched", len(items), "ingested", ingested)
}

// Stop halts polling and waits for the current round to finish.
// The scheduler can be started again afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

// Release stops the scheduler and releases the worker pool.
func (s *Scheduler) Release() {
	s.Stop()
	s.pool.Release()
}
