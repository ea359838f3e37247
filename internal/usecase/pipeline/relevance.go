package pipeline

import (
	"strings"
	"time"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

const day = 24 * time.Hour

// Relevance point caps.
const (
	titleMax      = 50.0
	bodyMax       = 30.0
	tagPoints     = 5.0
	engagementMax = 10.0
	relevanceMax  = 100.0
)

// Relevance scores s against query on a 0..100 scale.
// A whole-query substring earns the full field cap; otherwise points are
// proportional to the share of query terms found.
func Relevance(s *signal.Signal, query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	terms := queryTerms(q)
	if len(terms) == 0 {
		return 0
	}
	title := strings.ToLower(s.Title)
	body := strings.ToLower(s.Body)

	score := fieldScore(title, q, terms, titleMax)
	score += fieldScore(body, q, terms, bodyMax)

	for _, tag := range s.Tags {
		tag = strings.ToLower(tag)
		for _, term := range terms {
			if tag == term || strings.Contains(tag, term) {
				score += tagPoints
				break
			}
		}
	}

	score += min(engagementMax, float64(s.Engagement())/10)
	return min(relevanceMax, score)
}

func fieldScore(field, query string, terms []string, ceiling float64) float64 {
	if field == "" {
		return 0
	}
	if strings.Contains(field, query) {
		return ceiling
	}
	hits := 0
	for _, t := range terms {
		if strings.Contains(field, t) {
			hits++
		}
	}
	// partial matches never reach the exact-phrase cap
	return ceiling * 0.8 * float64(hits) / float64(len(terms))
}

func queryTerms(q string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range strings.Fields(q) {
		f = strings.Trim(f, `.,;:!?"'()[]`)
		if len(f) < 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// FreshnessMultiplier boosts recent signals and damps ones older than a year.
// A zero CreatedAt is treated as unknown age.
func FreshnessMultiplier(created, now time.Time) float64 {
	if created.IsZero() {
		return 1.0
	}
	age := now.Sub(created)
	switch {
	case age < day:
		return 1.5
	case age < 7*day:
		return 1.3
	case age < 30*day:
		return 1.1
	case age > 365*day:
		return 0.7
	default:
		return 1.0
	}
}
