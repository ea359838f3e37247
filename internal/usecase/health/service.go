package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional dependency is down.
	Degraded Status = "degraded"
	// Unhealthy indicates the index store is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const defaultCheckTimeout = 3 * time.Second

var errRerankDown = errors.New("rerank probe failed")

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

type probe struct {
	name     string
	critical bool
	fn       func(ctx context.Context) error
}

// Option adds an optional dependency to the health report.
type Option func(*Service)

// WithEmbedding checks the embedding provider. A nil checker is ignored.
func WithEmbedding(e EmbeddingChecker) Option {
	return func(s *Service) {
		if e != nil {
			s.probes = append(s.probes, probe{name: "embedding", fn: e.HealthCheck})
		}
	}
}

// WithReranker checks the reranking service. A nil checker is ignored.
func WithReranker(r RerankChecker) Option {
	return func(s *Service) {
		if r == nil {
			return
		}
		s.probes = append(s.probes, probe{name: "rerank", fn: func(ctx context.Context) error {
			if !r.Available(ctx) {
				return errRerankDown
			}
			return nil
		}})
	}
}

// Service coordinates health checks.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service. The database is the only critical dependency.
func New(db DBPinger, opts ...Option) *Service {
	s := &Service{
		probes:  []probe{{name: "database", critical: true, fn: db.Ping}},
		timeout: defaultCheckTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs every probe concurrently, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.probes))
	status := Healthy
	var mu sync.Mutex

	var g errgroup.Group
	for _, p := range s.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			err := p.fn(pctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				checks[p.name] = CheckOK
				return nil
			}
			checks[p.name] = CheckError
			switch {
			case p.critical:
				status = Unhealthy
			case status == Healthy:
				status = Degraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: status, Checks: checks}
}
