package result

import (
	"github.com/kailas-cloud/sigdex/internal/domain/search/mode"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Hit is a single ranked candidate from one retrieval clause.
type Hit struct {
	id     string
	score  float64
	signal signal.Signal
}

// NewHit creates a ranked candidate.
func NewHit(id string, score float64, s signal.Signal) Hit {
	return Hit{id: id, score: score, signal: s}
}

// ID returns the signal identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the clause-local relevance score.
func (h *Hit) Score() float64 { return h.score }

// Signal returns the stored signal.
func (h *Hit) Signal() signal.Signal { return h.signal }

// Response is the outcome of one search call.
type Response struct {
	Query        string          `json:"query"`
	Results      []signal.Signal `json:"results"`
	TotalResults int             `json:"total_results"`
	SearchTimeMs int64           `json:"search_time_ms"`
	Reranked     bool            `json:"reranked"`
	Mode         mode.Mode       `json:"mode"`
}
