package collect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/sigdex/internal/logger"
	"github.com/kailas-cloud/sigdex/internal/metrics"
)

// Runner defaults.
const (
	DefaultWorkers   = 2
	DefaultQueueSize = 16
)

var (
	// ErrRunnerFull is returned when the job buffer is full.
	ErrRunnerFull = errors.New("runner queue full")
	// ErrRunnerClosed is returned after Close.
	ErrRunnerClosed = errors.New("runner closed")
)

type job struct {
	id   string
	name string
	ctx  context.Context
	fn   func(ctx context.Context) error
}

// Runner executes fire-and-forget jobs on a fixed worker pool.
// Job errors are logged, never returned to the submitter.
type Runner struct {
	jobs   chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	logger *zap.Logger
}

// NewRunner starts workers reading from a buffered job channel.
func NewRunner(workers, queueSize int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r := &Runner{
		jobs:   make(chan job, queueSize),
		logger: logger.With(zap.String("component", "collect_runner")),
	}
	r.wg.Add(workers)
	for range workers {
		go r.work()
	}
	return r
}

// Submit schedules fn and returns the job id. The job runs detached from
// ctx cancellation but keeps its values.
func (r *Runner) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return "", ErrRunnerClosed
	}

	j := job{id: uuid.NewString(), name: name, ctx: context.WithoutCancel(ctx), fn: fn}
	select {
	case r.jobs <- j:
		return j.id, nil
	default:
		metrics.CollectJobsTotal.WithLabelValues("dropped").Inc()
		r.logger.Warn("Job dropped", zap.String("job", name))
		return "", ErrRunnerFull
	}
}

// Close stops accepting jobs and waits for queued ones until ctx expires.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("runner close: %w", ctx.Err())
	}
}

func (r *Runner) work() {
	defer r.wg.Done()
	for j := range r.jobs {
		r.run(j)
	}
}

func (r *Runner) run(j job) {
	ctx := logpkg.WithFields(j.ctx, zap.String("job_id", j.id), zap.String("job", j.name))
	logger := logpkg.For(ctx, r.logger)
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			metrics.CollectJobsTotal.WithLabelValues("error").Inc()
			logger.Error("Job panicked", zap.Any("panic", p))
		}
	}()

	if err := j.fn(ctx); err != nil {
		metrics.CollectJobsTotal.WithLabelValues("error").Inc()
		logger.Error("Job failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	metrics.CollectJobsTotal.WithLabelValues("success").Inc()
	logger.Info("Job finished", zap.Duration("duration", time.Since(start)))
}
