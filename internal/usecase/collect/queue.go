package collect

import (
	"sync"

	"github.com/kailas-cloud/sigdex/internal/metrics"
)

// DefaultThreshold is the queue length that triggers a background batch.
const DefaultThreshold = 10

// QueueState holds pending and already-processed queries.
// Queries are expected to be normalized by the caller.
type QueueState struct {
	mu        sync.Mutex
	pending   []string
	queued    map[string]struct{}
	processed map[string]struct{}
	threshold int
}

// NewQueueState creates an empty queue state.
func NewQueueState(threshold int) *QueueState {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &QueueState{
		queued:    make(map[string]struct{}),
		processed: make(map[string]struct{}),
		threshold: threshold,
	}
}

// Push enqueues q unless it is processed or already pending.
// When the queue reaches the threshold it is drained and the batch returned.
func (s *QueueState) Push(q string) (added bool, batch []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processed[q]; ok {
		return false, nil
	}
	if _, ok := s.queued[q]; ok {
		return false, nil
	}
	s.pending = append(s.pending, q)
	s.queued[q] = struct{}{}

	if len(s.pending) >= s.threshold {
		batch = s.drainLocked()
	}
	metrics.CollectQueueLength.Set(float64(len(s.pending)))
	return true, batch
}

// Drain empties the queue and returns its contents in FIFO order.
func (s *QueueState) Drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.drainLocked()
	metrics.CollectQueueLength.Set(0)
	return batch
}

func (s *QueueState) drainLocked() []string {
	batch := s.pending
	s.pending = nil
	clear(s.queued)
	return batch
}

// Requeue puts an unscheduled batch back ahead of anything queued since.
// Processed and already pending queries are skipped. It never drains.
func (s *QueueState) Requeue(batch []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	front := make([]string, 0, len(batch))
	for _, q := range batch {
		if _, ok := s.processed[q]; ok {
			continue
		}
		if _, ok := s.queued[q]; ok {
			continue
		}
		s.queued[q] = struct{}{}
		front = append(front, q)
	}
	s.pending = append(front, s.pending...)
	metrics.CollectQueueLength.Set(float64(len(s.pending)))
}

// MarkProcessed records q so later queue or collect calls skip it.
func (s *QueueState) MarkProcessed(q string) {
	s.mu.Lock()
	s.processed[q] = struct{}{}
	s.mu.Unlock()
}

// IsProcessed reports whether q was already collected.
func (s *QueueState) IsProcessed(q string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[q]
	return ok
}

// Len returns the number of pending queries.
func (s *QueueState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ProcessedCount returns the number of processed queries.
func (s *QueueState) ProcessedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}

// Threshold returns the batch trigger length.
func (s *QueueState) Threshold() int { return s.threshold }

// Reset clears pending and processed queries.
func (s *QueueState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	clear(s.queued)
	clear(s.processed)
	metrics.CollectQueueLength.Set(0)
}
