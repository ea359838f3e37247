package signal

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the content source a signal was collected from.
type Platform string

// Supported platforms.
const (
	PlatformReddit      Platform = "reddit"
	PlatformHackerNews  Platform = "hackernews"
	PlatformGitHub      Platform = "github"
	PlatformProductHunt Platform = "producthunt"
)

// AllPlatforms lists every supported platform in declaration order.
func AllPlatforms() []Platform {
	return []Platform{PlatformReddit, PlatformHackerNews, PlatformGitHub, PlatformProductHunt}
}

// IsValid checks if the platform is one of the supported values.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformReddit, PlatformHackerNews, PlatformGitHub, PlatformProductHunt:
		return true
	}
	return false
}

// ParsePlatform parses a case-insensitive platform name.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

// SentimentLabel is the coarse polarity of a text.
type SentimentLabel string

// Sentiment labels.
const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// IsValid checks if the label is one of the supported values.
func (l SentimentLabel) IsValid() bool {
	return l == SentimentPositive || l == SentimentNegative || l == SentimentNeutral
}

// Sentiment is the lexicon-based polarity of a signal's text.
type Sentiment struct {
	Score       float64        `json:"score"`
	Comparative float64        `json:"comparative"`
	Label       SentimentLabel `json:"label"`
	Confidence  float64        `json:"confidence"`
}

// QualityMetrics are text-shape heuristics used for spam and noise detection.
type QualityMetrics struct {
	TextLength  int     `json:"text_length"`
	WordCount   int     `json:"word_count"`
	Readability float64 `json:"readability"` // 0..1
	HasCode     bool    `json:"has_code"`
	HasLinks    bool    `json:"has_links"`
	SpamScore   float64 `json:"spam_score"` // 0..1
}

// Signal is one normalized content item from any platform.
// It is mutated in place while it moves through the enrichment pipeline
// and is read-only once persisted.
type Signal struct {
	ID          string    `json:"id"`
	Platform    Platform  `json:"platform"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Author      string    `json:"author"`
	URL         string    `json:"url"`
	Tags        []string  `json:"tags"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	CreatedAt   time.Time `json:"created_at"`
	IndexedAt   time.Time `json:"indexed_at"`

	Embedding     []float32       `json:"-"`
	Sentiment     *Sentiment      `json:"sentiment,omitempty"`
	Quality       *QualityMetrics `json:"quality,omitempty"`
	DomainContext string          `json:"domain_context,omitempty"`

	// QualityScore is the composite 0..100 admission score computed at ingest.
	QualityScore float64 `json:"quality_score"`
	// IsProblem is set when a problem keyword was detected during tagging.
	IsProblem bool `json:"is_problem"`

	// RelevanceScore is query-scoped and never persisted.
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

// NewID builds the platform-prefixed primary key for a native id.
func NewID(p Platform, nativeID string) string {
	return string(p) + "_" + nativeID
}

// Engagement is the dedup and ordering weight of a signal.
func (s *Signal) Engagement() int {
	return s.Score + s.NumComments
}

// Text returns title and body joined for analysis.
func (s *Signal) Text() string {
	if s.Body == "" {
		return s.Title
	}
	if s.Title == "" {
		return s.Body
	}
	return s.Title + "\n" + s.Body
}

// Validate checks the invariants adapters must uphold.
func (s *Signal) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("signal id is required")
	}
	if !s.Platform.IsValid() {
		return fmt.Errorf("signal %s: invalid platform %q", s.ID, s.Platform)
	}
	if !strings.HasPrefix(s.ID, string(s.Platform)+"_") {
		return fmt.Errorf("signal %s: id must be prefixed with platform %q", s.ID, s.Platform)
	}
	if s.Score < 0 || s.NumComments < 0 {
		return fmt.Errorf("signal %s: engagement must be non-negative", s.ID)
	}
	if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Body) == "" {
		return fmt.Errorf("signal %s: title or body is required", s.ID)
	}
	return nil
}

// HasTag reports whether the signal carries the tag (case-insensitive).
func (s *Signal) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Stats summarizes index contents.
type Stats struct {
	Total      int              `json:"total"`
	ByPlatform map[Platform]int `json:"by_platform"`
}
