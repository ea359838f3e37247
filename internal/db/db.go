// Package db defines the storage contract behind the signal index: hashes
// for signal documents, plain keys for the embedding cache, and Redis Query
// Engine (FT.*) indexes for keyword and vector retrieval.
package db

import (
	"context"
	"time"
)

// Store is everything the composition root needs from one connection.
// Consumers depend on the narrow interfaces below.
//
//nolint:interfacebloat // facade; consumers use the sub-interfaces
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity. Health probes use it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is one HSET in a pipelined write.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore writes and reads signal documents.
type HashStore interface {
	// HSetMulti pipelines every item; per-key failures come back as *BatchError.
	HSetMulti(ctx context.Context, items []HashSetItem) error
	// HGetAll returns ErrKeyNotFound for a missing hash.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVStore holds opaque values such as cached embeddings.
type KVStore interface {
	// Get returns ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// IndexManager creates and drops FT indexes.
type IndexManager interface {
	// CreateIndex returns ErrIndexExists when the name is taken.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	// DropIndex returns ErrIndexNotFound for an unknown name.
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs the retrieval clauses of a hybrid query.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, q *CountQuery) (int, error)
}
