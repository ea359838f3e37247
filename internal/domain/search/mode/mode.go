package mode

// Mode is the retrieval path that produced a result set.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses keyword and vector candidates.
	Hybrid Mode = "hybrid"
	// Keyword is the degraded path used when no query vector is available.
	Keyword Mode = "keyword"
	// Reranked is the hybrid first stage reordered by the reranker.
	Reranked Mode = "reranked"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Keyword || m == Reranked
}
