package signal

import (
	"github.com/kailas-cloud/sigdex/internal/db"
	domsig "github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Title matches outrank body matches in keyword scoring.
const (
	titleWeight = 3.0
	bodyWeight  = 1.0
)

// HNSWConfig holds HNSW index tuning parameters.
type HNSWConfig struct {
	M           int // max edges per node (default 16)
	EFConstruct int // build-time dynamic list size (default 200)
}

// buildIndex returns the FT.CREATE definition for the signal index.
func buildIndex(name, prefix string, vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(name).
		Prefix(prefix).
		WeightedText(domsig.FieldTitle, titleWeight).
		WeightedText(domsig.FieldBody, bodyWeight).
		TagWithOpts(domsig.FieldTags, domsig.TagSeparator, false).
		Tag(domsig.FieldPlatform).
		Tag(domsig.FieldSentiment).
		Tag(domsig.FieldDomain).
		Tag(domsig.FieldProblem).
		Tag(domsig.FieldAuthor).
		SortableNumeric(domsig.FieldScore).
		Numeric(domsig.FieldNumComments).
		SortableNumeric(domsig.FieldCreatedAt).
		Numeric(domsig.FieldIndexedAt).
		Numeric(domsig.FieldQualityScore).
		Numeric(domsig.FieldSentimentScore).
		VectorHNSW(domsig.FieldEmbedding, vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		Build()
}
