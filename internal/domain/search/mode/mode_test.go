package mode

import "testing"

func TestIsValid(t *testing.T) {
	for _, m := range []Mode{Hybrid, Keyword, Reranked} {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}
	for _, m := range []Mode{"", "semantic", "geo", "HYBRID"} {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}
