package resolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/placeresolve/internal/place"
)

// Task is one unit of lookup work for an unresolved record.
type Task struct {
	Record   *place.Record
	Attempts int
}

// Outcome is the terminal result of a task, keyed by record index. Err is
// nil on success and carries a LookupError kind on failure.
type Outcome struct {
	Index  int
	Coords place.Coordinates
	Err    error
}

// Scheduler dispatches lookup tasks across the session pool with bounded
// parallelism. Failed retryable tasks are requeued rather than retried in
// place, so one stubborn record never blocks the rest of the queue.
type Scheduler struct {
	pool         *Pool
	retryCeiling int
	onProgress   func(done, total int)
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithRetryCeiling sets how many extra attempts a retryable failure earns.
// Zero means a single attempt per record.
func WithRetryCeiling(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.retryCeiling = n
		}
	}
}

// WithProgress registers a callback invoked after each task reaches a
// terminal outcome.
func WithProgress(fn func(done, total int)) Option {
	return func(s *Scheduler) {
		s.onProgress = fn
	}
}

// NewScheduler creates a Scheduler over the given pool.
func NewScheduler(pool *Pool, opts ...Option) *Scheduler {
	s := &Scheduler{pool: pool, retryCeiling: 2}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run looks up every record that arrived without coordinates and returns one
// Outcome per such record, keyed by record index. Records that carried
// coordinates on input are authoritative and are never dispatched. Completion
// order is unconstrained; callers merge outcomes back by index.
func (s *Scheduler) Run(ctx context.Context, records []*place.Record) (map[int]Outcome, error) {
	var pending []*Task
	for _, r := range records {
		if r.NeedsLookup() {
			pending = append(pending, &Task{Record: r})
		}
	}

	outcomes := make(map[int]Outcome, len(pending))
	if len(pending) == 0 {
		return outcomes, nil
	}

	total := len(pending)
	var mu sync.Mutex
	var done int64

	record := func(o Outcome) {
		mu.Lock()
		outcomes[o.Index] = o
		mu.Unlock()
		d := int(atomic.AddInt64(&done, 1))
		if s.onProgress != nil {
			s.onProgress(d, total)
		}
	}

	// Lookup URLs that embed their own coordinates resolve without a
	// session. Everything else goes on the work queue.
	queue := make(chan *Task, len(pending))
	var queued int64
	for _, t := range pending {
		if coords, ok := QueryCoords(t.Record.Query()); ok && t.Record.Locator != "" {
			record(Outcome{Index: t.Record.Index, Coords: coords})
			continue
		}
		queued++
		queue <- t
	}
	if queued == 0 {
		return outcomes, nil
	}

	remaining := queued
	workers := s.pool.Size()
	log := zap.L().With(zap.String("component", "scheduler"))
	log.Info("dispatching lookups",
		zap.Int("pending", total),
		zap.Int64("queued", queued),
		zap.Int("workers", workers),
		zap.Int("retry_ceiling", s.retryCeiling),
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				var task *Task
				select {
				case t, ok := <-queue:
					if !ok {
						return nil
					}
					task = t
				case <-gctx.Done():
					return gctx.Err()
				}

				coords, err := s.attempt(gctx, task)
				task.Attempts++

				if err != nil && Retryable(err) &&
					task.Attempts < 1+s.retryCeiling &&
					!errors.Is(err, ErrPoolExhausted) &&
					gctx.Err() == nil {
					log.Debug("requeueing task",
						zap.Int("record", task.Record.Index),
						zap.Int("attempts", task.Attempts),
						zap.Error(err),
					)
					queue <- task
					continue
				}

				if err != nil {
					log.Warn("lookup failed",
						zap.Int("record", task.Record.Index),
						zap.String("name", task.Record.Name),
						zap.Int("attempts", task.Attempts),
						zap.String("kind", string(KindOf(err))),
						zap.Error(err),
					)
				}
				record(Outcome{Index: task.Record.Index, Coords: coords, Err: err})

				if atomic.AddInt64(&remaining, -1) == 0 {
					close(queue)
				}
			}
		})
	}

	err := g.Wait()

	var ok, failed int
	mu.Lock()
	for _, o := range outcomes {
		if o.Err == nil {
			ok++
		} else {
			failed++
		}
	}
	mu.Unlock()
	log.Info("lookups finished",
		zap.Int("resolved", ok),
		zap.Int("failed", failed),
		zap.Int("pool_live", s.pool.Live()),
	)

	return outcomes, err
}

// attempt performs one lookup, holding a session slot only for its duration.
func (s *Scheduler) attempt(ctx context.Context, task *Task) (place.Coordinates, error) {
	slot, err := s.pool.Acquire(ctx)
	if err != nil {
		return place.Coordinates{}, err
	}
	coords, err := slot.Resolver().Resolve(ctx, task.Record.Query())
	s.pool.Release(ctx, slot, err)
	return coords, err
}
