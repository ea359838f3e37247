package pipeline

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

const titleKeyLen = 100

// Dedupe merges signals that share a normalized URL or title, keeping the one
// with higher engagement (first seen on ties). The result is sorted by
// engagement descending.
func Dedupe(in []signal.Signal) []signal.Signal {
	if len(in) == 0 {
		return nil
	}

	byKey := make(map[string]int, len(in)*2)
	// beaten[i] points at the signal that displaced i.
	beaten := make(map[int]int)
	resolve := func(i int) int {
		for {
			w, ok := beaten[i]
			if !ok {
				return i
			}
			i = w
		}
	}

	for i := range in {
		keys := dedupKeys(&in[i])
		winner := i
		for _, k := range keys {
			j, ok := byKey[k]
			if !ok {
				continue
			}
			j = resolve(j)
			if j == winner {
				continue
			}
			if ej, ew := in[j].Engagement(), in[winner].Engagement(); ej > ew || (ej == ew && j < winner) {
				beaten[winner] = j
				winner = j
			} else {
				beaten[j] = winner
			}
		}
		for _, k := range keys {
			byKey[k] = winner
		}
	}

	out := make([]signal.Signal, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i := range in {
		if _, lost := beaten[i]; lost {
			continue
		}
		if _, dup := seen[in[i].ID]; dup {
			continue
		}
		seen[in[i].ID] = struct{}{}
		out = append(out, in[i])
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Engagement() > out[b].Engagement()
	})
	return out
}

func dedupKeys(s *signal.Signal) []string {
	keys := make([]string, 0, 2)
	if k := urlKey(s.URL); k != "" {
		keys = append(keys, "u:"+k)
	}
	if k := titleKey(s.Title); k != "" {
		keys = append(keys, "t:"+k)
	}
	return keys
}

// urlKey lowercases and strips scheme, www., query, fragment and trailing slash.
func urlKey(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	u = strings.TrimPrefix(u, "www.")
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}

// titleKey lowercases, drops punctuation, collapses whitespace and truncates.
func titleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	key := strings.Join(strings.Fields(b.String()), " ")
	if r := []rune(key); len(r) > titleKeyLen {
		key = string(r[:titleKeyLen])
	}
	return key
}
