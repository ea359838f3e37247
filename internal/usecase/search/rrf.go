package search

import (
	"sort"

	"github.com/kailas-cloud/sigdex/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// Clause weights. Semantic matches outrank lexical ones at equal rank.
const (
	VectorWeight  = 2.0
	KeywordWeight = 1.0
)

type fused struct {
	hit   result.Hit
	score float64
}

// fuseRRF merges vector and keyword hits via weighted Reciprocal Rank Fusion:
// score(d) = sum of w_i/(k + rank_i(d)) over the lists containing d.
// Equal scores keep first-seen order, vector list first.
func fuseRRF(vector, keyword []result.Hit) []fused {
	merged := make([]fused, 0, len(vector)+len(keyword))
	index := make(map[string]int, len(vector)+len(keyword))

	add := func(hits []result.Hit, weight float64) {
		for rank, h := range hits {
			s := weight / float64(rrfK+rank+1)
			if i, ok := index[h.ID()]; ok {
				merged[i].score += s
				continue
			}
			index[h.ID()] = len(merged)
			merged = append(merged, fused{hit: h, score: s})
		}
	}
	add(vector, VectorWeight)
	add(keyword, KeywordWeight)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].score > merged[j].score
	})
	return merged
}

// rankScore is the fused score of a document ranked at rank in both lists.
func rankScore(rank int) float64 {
	return (VectorWeight + KeywordWeight) / float64(rrfK+rank+1)
}
