// Package pipeline turns raw platform signals into ranked, persist-ready ones.
package pipeline

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Filter defaults.
const (
	DefaultMinQuality    = 40.0
	DefaultMaxTags       = 20
	DefaultMaxProducts   = 5
	DefaultMaxAge        = 30 * day
	DefaultSpamThreshold = 0.7
)

// Noise thresholds.
const (
	minBodyLen  = 50
	minTitleLen = 20
)

var deletionMarkers = []string{"[deleted]", "[removed]"}

// FilterConfig tunes the quality and relevance filter.
type FilterConfig struct {
	MinQuality    float64
	MaxTags       int
	MaxProducts   int
	MaxAge        time.Duration
	SpamThreshold float64
	Now           func() time.Time
}

func (c *FilterConfig) setDefaults() {
	if c.MinQuality <= 0 {
		c.MinQuality = DefaultMinQuality
	}
	if c.MaxTags <= 0 {
		c.MaxTags = DefaultMaxTags
	}
	if c.MaxProducts <= 0 {
		c.MaxProducts = DefaultMaxProducts
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.SpamThreshold <= 0 {
		c.SpamThreshold = DefaultSpamThreshold
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Filter runs noise removal, dedup, quality scoring, tag enhancement and
// query relevance over a batch of signals.
type Filter struct {
	cfg FilterConfig
}

// NewFilter creates a filter; zero config fields take defaults.
func NewFilter(cfg FilterConfig) *Filter {
	cfg.setDefaults()
	return &Filter{cfg: cfg}
}

// Process returns the surviving signals ordered by relevance when query is
// non-empty, by engagement otherwise. Signals are mutated in place.
func (f *Filter) Process(signals []signal.Signal, query string) []signal.Signal {
	now := f.cfg.Now()

	kept := make([]signal.Signal, 0, len(signals))
	for i := range signals {
		if !f.isNoise(&signals[i], now) {
			kept = append(kept, signals[i])
		}
	}

	kept = Dedupe(kept)

	out := kept[:0]
	for i := range kept {
		s := &kept[i]
		s.QualityScore = f.qualityScore(s, now)
		if s.QualityScore >= f.cfg.MinQuality {
			out = append(out, *s)
		}
	}

	for i := range out {
		out[i].IsProblem = enhanceTags(&out[i], f.cfg.MaxTags, f.cfg.MaxProducts)
	}

	if strings.TrimSpace(query) == "" {
		return out
	}
	for i := range out {
		out[i].RelevanceScore = Relevance(&out[i], query)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].RelevanceScore > out[b].RelevanceScore
	})
	for i := range out {
		out[i].RelevanceScore *= FreshnessMultiplier(out[i].CreatedAt, now)
	}
	return out
}

func (f *Filter) isNoise(s *signal.Signal, now time.Time) bool {
	for _, m := range deletionMarkers {
		if strings.Contains(s.Body, m) {
			return true
		}
	}
	if utf8.RuneCountInString(s.Body) < minBodyLen && utf8.RuneCountInString(s.Title) < minTitleLen {
		return true
	}
	if s.Quality != nil && s.Quality.SpamScore > f.cfg.SpamThreshold {
		return true
	}
	if s.Engagement() == 0 && !s.CreatedAt.IsZero() && now.Sub(s.CreatedAt) > f.cfg.MaxAge {
		return true
	}
	return false
}

// qualityScore is base 50 plus engagement, content, recency and author bonuses.
func (f *Filter) qualityScore(s *signal.Signal, now time.Time) float64 {
	score := 50.0
	score += min(30, float64(s.Score+2*s.NumComments)/10)

	spam, words := 0.0, len(strings.Fields(s.Text()))
	if s.Quality != nil {
		spam, words = s.Quality.SpamScore, s.Quality.WordCount
	}
	score += (1 - spam) * 10
	score += min(10, float64(words)/10)

	if !s.CreatedAt.IsZero() {
		switch age := now.Sub(s.CreatedAt); {
		case age < day:
			score += 10
		case age < 7*day:
			score += 7
		case age < 30*day:
			score += 4
		}
	}

	if credibleAuthor(s.Author) {
		score += 5
	}
	return min(100, max(0, score))
}

func credibleAuthor(author string) bool {
	switch strings.ToLower(strings.TrimSpace(author)) {
	case "", "[deleted]", "deleted", "automoderator":
		return false
	}
	return true
}
