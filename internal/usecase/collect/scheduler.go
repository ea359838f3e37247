package collect

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultFlushSchedule drains a partially filled queue every half hour.
const DefaultFlushSchedule = "*/30 * * * *"

// Scheduler periodically flushes the collection queue.
type Scheduler struct {
	cron    *cron.Cron
	flusher interface{ Flush(ctx context.Context) int }
	running atomic.Bool
	logger  *zap.Logger
}

// NewScheduler registers the flush job with a standard five-field cron spec.
func NewScheduler(o *Orchestrator, spec string, logger *zap.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultFlushSchedule
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		flusher: o,
		logger:  logger.With(zap.String("component", "flush_scheduler"), zap.String("spec", spec)),
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("schedule flush %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Flush scheduler started")
}

// Stop halts the loop and waits for a running flush.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Info("Flush skipped: still running")
		return
	}
	defer s.running.Store(false)

	if n := s.flusher.Flush(context.Background()); n > 0 {
		s.logger.Info("Queue flushed", zap.Int("queries", n))
	}
}
