package analyze

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Sentiment scores text against the polarity lexicons.
// A negation immediately before a word flips it; an intensifier doubles it.
func Sentiment(text string) signal.Sentiment {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return signal.Sentiment{Label: signal.SentimentNeutral}
	}

	var score float64
	hits := 0
	for i, tok := range tokens {
		var v float64
		switch {
		case has(positiveWords, tok):
			v = 1
		case has(negativeWords, tok):
			v = -1
		default:
			continue
		}
		hits++

		prev := at(tokens, i-1)
		if has(intensifiers, prev) {
			v *= 2
			prev = at(tokens, i-2)
		}
		if has(negationWords, prev) {
			v = -v
		}
		score += v
	}

	n := float64(len(tokens))
	label := signal.SentimentNeutral
	switch {
	case score > 0.5:
		label = signal.SentimentPositive
	case score < -0.5:
		label = signal.SentimentNegative
	}
	return signal.Sentiment{
		Score:       score,
		Comparative: score / n,
		Label:       label,
		Confidence:  min(1, float64(hits)/max(n/10, 1)),
	}
}

// tokenize splits on whitespace, lowercases and strips surrounding punctuation.
// Inner apostrophes survive so contractions match the negation list.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		f = strings.ReplaceAll(f, "’", "'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func has(m map[string]struct{}, w string) bool {
	_, ok := m[w]
	return ok
}

func at(tokens []string, i int) string {
	if i < 0 || i >= len(tokens) {
		return ""
	}
	return tokens[i]
}
