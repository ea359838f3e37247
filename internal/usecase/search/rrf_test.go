package search

import (
	"math"
	"testing"

	"github.com/kailas-cloud/sigdex/internal/domain/search/result"
)

func TestFuseRRF_Weighted(t *testing.T) {
	got := fuseRRF(
		[]result.Hit{hit("a", 0.9), hit("b", 0.8)},
		[]result.Hit{hit("b", 12), hit("c", 9)},
	)
	want := []struct {
		id    string
		score float64
	}{
		{"reddit_b", 2.0/62 + 1.0/61},
		{"reddit_a", 2.0 / 61},
		{"reddit_c", 1.0 / 62},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].hit.ID() != w.id {
			t.Errorf("[%d] id = %s, want %s", i, got[i].hit.ID(), w.id)
		}
		if math.Abs(got[i].score-w.score) > 1e-12 {
			t.Errorf("[%d] score = %v, want %v", i, got[i].score, w.score)
		}
	}
}

func TestFuseRRF_VectorOutranksKeywordAtSameRank(t *testing.T) {
	got := fuseRRF([]result.Hit{hit("v", 0.5)}, []result.Hit{hit("k", 30)})
	if got[0].hit.ID() != "reddit_v" {
		t.Errorf("expected vector hit first, got %s", got[0].hit.ID())
	}
}

func TestFuseRRF_Empty(t *testing.T) {
	if got := fuseRRF(nil, nil); len(got) != 0 {
		t.Errorf("expected empty, got %d", len(got))
	}
	got := fuseRRF(nil, []result.Hit{hit("k1", 1), hit("k2", 1)})
	if len(got) != 2 || got[0].hit.ID() != "reddit_k1" {
		t.Errorf("keyword-only order broken: %+v", got)
	}
}
