package signal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/sigdex/internal/db"
	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/search/filter"
	domsig "github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Defaults for the signal index.
const (
	DefaultIndexName = "sigdex:signals:idx"
	DefaultPrefix    = "sigdex:signal:"
	DefaultBatchSize = 100
)

// store is the consumer interface for the index gateway (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	SearchCount(ctx context.Context, q *db.CountQuery) (int, error)
}

// Config describes the index layout.
type Config struct {
	IndexName string
	Prefix    string
	VectorDim int
	BatchSize int
	HNSW      HNSWConfig
}

// Repo is the index gateway: schema, bulk upsert and counts.
type Repo struct {
	store store
	cfg   Config
}

// New creates a signal repository.
func New(s store, cfg Config) *Repo {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Repo{store: s, cfg: cfg}
}

// IndexName returns the FT index name.
func (r *Repo) IndexName() string { return r.cfg.IndexName }

// Prefix returns the hash key prefix.
func (r *Repo) Prefix() string { return r.cfg.Prefix }

// VectorDim returns the configured embedding dimension.
func (r *Repo) VectorDim() int { return r.cfg.VectorDim }

// EnsureIndex creates the index if it does not exist. Returns true if created.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	def, err := buildIndex(r.cfg.IndexName, r.cfg.Prefix, r.cfg.VectorDim, r.cfg.HNSW)
	if err != nil {
		return false, fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w: %w", r.cfg.IndexName, domain.ErrIndexUnavailable, err)
	}
	return true, nil
}

// DropIndex removes the index, optionally with all stored signals.
func (r *Repo) DropIndex(ctx context.Context, deleteDocs bool) error {
	if err := r.store.DropIndex(ctx, r.cfg.IndexName, deleteDocs); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index %s: %w", r.cfg.IndexName, domain.ErrNotFound)
		}
		return fmt.Errorf("drop index %s: %w", r.cfg.IndexName, err)
	}
	return nil
}

// Upsert writes signals in pipelined batches keyed by id.
// Every embedding is checked against the index dimension before anything is written.
// Per-document failures are collected across batches and returned as one
// *db.BatchError whose Failed holds signal ids.
func (r *Repo) Upsert(ctx context.Context, signals []domsig.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	for i := range signals {
		s := &signals[i]
		if err := s.Validate(); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
		if n := len(s.Embedding); n > 0 && r.cfg.VectorDim > 0 && n != r.cfg.VectorDim {
			return fmt.Errorf("upsert %s: got %d, want %d: %w", s.ID, n, r.cfg.VectorDim, domain.ErrVectorDimMismatch)
		}
	}

	var (
		failed []string
		errs   []error
	)
	for start := 0; start < len(signals); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(signals))
		items := make([]db.HashSetItem, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, db.HashSetItem{
				Key:    r.key(signals[i].ID),
				Fields: buildHashFields(&signals[i]),
			})
		}

		err := r.store.HSetMulti(ctx, items)
		if err == nil {
			continue
		}
		var be *db.BatchError
		if !errors.As(err, &be) {
			return fmt.Errorf("upsert batch: %w: %w", domain.ErrIndexUnavailable, err)
		}
		for _, k := range be.Failed {
			failed = append(failed, strings.TrimPrefix(k, r.cfg.Prefix))
		}
		errs = append(errs, be.Err)
	}

	if len(failed) > 0 {
		return &db.BatchError{Op: db.OpHSet, Failed: failed, Err: errors.Join(errs...)}
	}
	return nil
}

// Get returns one stored signal by id.
func (r *Repo) Get(ctx context.Context, id string) (domsig.Signal, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsig.Signal{}, fmt.Errorf("signal %s: %w", id, domain.ErrNotFound)
		}
		return domsig.Signal{}, fmt.Errorf("get signal %s: %w: %w", id, domain.ErrIndexUnavailable, err)
	}
	return ParseHashFields(id, m), nil
}

// Count returns the number of indexed signals.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, &db.CountQuery{IndexName: r.cfg.IndexName})
	if err != nil {
		return 0, fmt.Errorf("count: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return n, nil
}

// Stats returns the total count plus a per-platform breakdown.
func (r *Repo) Stats(ctx context.Context) (domsig.Stats, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return domsig.Stats{}, err
	}
	st := domsig.Stats{Total: total, ByPlatform: make(map[domsig.Platform]int)}
	for _, p := range domsig.AllPlatforms() {
		cond, _ := filter.NewMatch(domsig.FieldPlatform, string(p))
		expr, _ := filter.NewExpression([]filter.Condition{cond}, nil, nil)
		n, err := r.store.SearchCount(ctx, &db.CountQuery{IndexName: r.cfg.IndexName, Filters: expr})
		if err != nil {
			return domsig.Stats{}, fmt.Errorf("count %s: %w: %w", p, domain.ErrIndexUnavailable, err)
		}
		st.ByPlatform[p] = n
	}
	return st, nil
}

func (r *Repo) key(id string) string {
	return r.cfg.Prefix + id
}
