package analyze

import (
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

func TestSentiment_Labels(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		label signal.SentimentLabel
		score float64
	}{
		{"positive", "I love this tool, it is great", signal.SentimentPositive, 2},
		{"negative", "The sync is broken and terrible", signal.SentimentNegative, -2},
		{"neutral", "The meeting is on Tuesday", signal.SentimentNeutral, 0},
		{"negation flips", "this is not good", signal.SentimentNegative, -1},
		{"intensifier doubles", "really slow", signal.SentimentNegative, -2},
		{"negated intensifier", "not very good", signal.SentimentNegative, -2},
		{"contraction negation", "It doesn't work, I don't like it", signal.SentimentNegative, -1},
		{"mixed cancels", "good but buggy", signal.SentimentNeutral, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sentiment(tt.text)
			if got.Label != tt.label {
				t.Errorf("label = %s, want %s (score %v)", got.Label, tt.label, got.Score)
			}
			if got.Score != tt.score {
				t.Errorf("score = %v, want %v", got.Score, tt.score)
			}
		})
	}
}

func TestSentiment_ComparativeAndConfidence(t *testing.T) {
	got := Sentiment("love love")
	if got.Comparative != 1 {
		t.Errorf("comparative = %v, want 1", got.Comparative)
	}
	if got.Confidence != 1 {
		t.Errorf("confidence = %v, want 1", got.Confidence)
	}

	long := "great " + strings.Repeat("word ", 39)
	got = Sentiment(long)
	// 40 tokens, one hit: 1 / (40/10)
	if math.Abs(got.Confidence-0.25) > 1e-9 {
		t.Errorf("confidence = %v, want 0.25", got.Confidence)
	}
}

func TestSentiment_Empty(t *testing.T) {
	got := Sentiment("   ")
	if got.Label != signal.SentimentNeutral || got.Score != 0 || got.Confidence != 0 {
		t.Errorf("unexpected %+v", got)
	}
}

func TestQuality_ShortTextNoTriggers(t *testing.T) {
	q := Quality("this app keeps crashing daily")
	if q.WordCount != 5 {
		t.Errorf("word count = %d, want 5", q.WordCount)
	}
	if q.SpamScore != 0 {
		t.Errorf("spam = %v, want 0", q.SpamScore)
	}
	if q.HasLinks || q.HasCode {
		t.Errorf("unexpected flags %+v", q)
	}
}

func TestQuality_Empty(t *testing.T) {
	q := Quality("")
	if q != (signal.QualityMetrics{}) {
		t.Errorf("expected zero metrics, got %+v", q)
	}
}

func TestQuality_SpamTriggers(t *testing.T) {
	text := "BUY NOW!!!! LIMITED TIME OFFER ONLY TODAY! Sooooooo cheap " +
		"http://a.io http://b.io http://c.io http://d.io 😀😀😀😀😀😀"
	q := Quality(text)
	// promo, exclamations, caps run, char run, links, emoji
	if q.SpamScore != 1 {
		t.Errorf("spam = %v, want 1", q.SpamScore)
	}
	if !q.HasLinks {
		t.Error("expected HasLinks")
	}
}

func TestQuality_SpamCounts(t *testing.T) {
	q := Quality("Click here to get the new release of our product for your team today\nthanks")
	if q.SpamScore != 0.2 {
		t.Errorf("spam = %v, want 0.2", q.SpamScore)
	}
}

func TestQuality_LinkOnlyShortPost(t *testing.T) {
	q := Quality("check https://example.com")
	if q.SpamScore != 0.2 {
		t.Errorf("spam = %v, want 0.2", q.SpamScore)
	}
}

func TestQuality_Code(t *testing.T) {
	q := Quality("Try this:\n```\nfunc main() {}\n```")
	if !q.HasCode {
		t.Error("expected HasCode for fenced block")
	}
	q = Quality("call `client.Close()` when done")
	if !q.HasCode {
		t.Error("expected HasCode for inline code")
	}
}

func TestQuality_Readability(t *testing.T) {
	easy := Quality("The cat sat. The dog ran. We all had fun.")
	if easy.Readability != 1 {
		t.Errorf("easy readability = %v, want 1", easy.Readability)
	}
	hard := Quality(strings.Repeat("internationalization ", 40))
	if hard.Readability >= easy.Readability {
		t.Errorf("hard readability %v should be below %v", hard.Readability, easy.Readability)
	}
	if hard.Readability < 0 || hard.Readability > 1 {
		t.Errorf("readability out of range: %v", hard.Readability)
	}
}

func TestClassifyDomain(t *testing.T) {
	tests := []struct {
		name string
		text string
		tags []string
		want string
	}{
		{"saas", "Our SaaS dashboard has a churn problem with subscription users", nil, "saas"},
		{"devtools", "Looking for a CLI and SDK to debug my API deploy", nil, "developer_tools"},
		{"tag match", "any recommendations?", []string{"Shopify"}, "ecommerce"},
		{"no match", "what a lovely afternoon", nil, DefaultDomain},
		{"word boundary", "she said it was fine", nil, DefaultDomain},
		{"tie goes to earlier domain", "payment for my course", nil, "fintech"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyDomain(tt.text, tt.tags); got != tt.want {
				t.Errorf("ClassifyDomain = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyze_SetsFields(t *testing.T) {
	s := &signal.Signal{
		ID:       "reddit_1",
		Platform: signal.PlatformReddit,
		Title:    "Stripe invoicing is terrible",
		Body:     "Every payment export fails.",
	}
	Analyze(s)
	if s.Sentiment == nil || s.Sentiment.Label != signal.SentimentNegative {
		t.Errorf("sentiment = %+v", s.Sentiment)
	}
	if s.Quality == nil || s.Quality.WordCount != 8 {
		t.Errorf("quality = %+v", s.Quality)
	}
	if s.DomainContext != "fintech" {
		t.Errorf("domain = %q, want fintech", s.DomainContext)
	}
}
