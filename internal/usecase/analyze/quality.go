package analyze

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

const spamTriggers = 5.0

var (
	linkRe  = regexp.MustCompile(`https?://\S+`)
	codeRe  = regexp.MustCompile("```|`[^`\n]+`|\\b(func|def|class|const|import|return|var|let)\\b[^\n]*[(){};=]")
	promoRe = regexp.MustCompile(`(?i)\b(buy now|click here|limited time|act now|free trial|promo code|discount code|100% free|make money|sign up now|order now|special offer)\b`)
	capsRe  = regexp.MustCompile(`\b[A-Z]{4,}(?:\s+[A-Z]{4,}){2,}\b`)
	sentRe  = regexp.MustCompile(`[.!?]+`)
)

// Quality computes text-shape metrics and the spam heuristic score.
func Quality(text string) signal.QualityMetrics {
	words := strings.Fields(text)
	m := signal.QualityMetrics{
		TextLength: utf8.RuneCountInString(text),
		WordCount:  len(words),
	}
	if m.WordCount == 0 {
		return m
	}

	m.Readability = readability(text, words)
	m.HasCode = codeRe.MatchString(text)
	links := len(linkRe.FindAllStringIndex(text, -1))
	m.HasLinks = links > 0

	triggered := 0
	if promoRe.MatchString(text) {
		triggered++
	}
	if strings.Count(text, "!") > 3 {
		triggered++
	}
	if capsRe.MatchString(text) {
		triggered++
	}
	if hasCharRun(text, 5) {
		triggered++
	}
	if links > 3 {
		triggered++
	}
	if countEmoji(text) > 5 {
		triggered++
	}
	if !strings.Contains(text, "\n") && (m.WordCount > 500 || (m.WordCount < 10 && m.HasLinks)) {
		triggered++
	}
	m.SpamScore = min(1, float64(triggered)/spamTriggers)
	return m
}

// readability averages two clamped linear terms: one penalizing average
// word length above 4 characters, one penalizing sentences above 15 words.
func readability(text string, words []string) float64 {
	letters := 0
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				letters++
			}
		}
	}
	avgWord := float64(letters) / float64(len(words))

	sentences := 0
	for _, s := range sentRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	avgSentence := float64(len(words)) / float64(max(sentences, 1))

	wordTerm := clamp01(1 - max(0, avgWord-4)/4)
	sentTerm := clamp01(1 - max(0, avgSentence-15)/15)
	return (wordTerm + sentTerm) / 2
}

// hasCharRun reports n or more identical consecutive non-space runes.
func hasCharRun(text string, n int) bool {
	var last rune
	run := 0
	for _, r := range text {
		if r == last && !unicode.IsSpace(r) {
			run++
			if run >= n {
				return true
			}
			continue
		}
		last = r
		run = 1
	}
	return false
}

func countEmoji(text string) int {
	n := 0
	for _, r := range text {
		if (r >= 0x1F300 && r <= 0x1FAFF) || (r >= 0x2600 && r <= 0x27BF) {
			n++
		}
	}
	return n
}

func clamp01(f float64) float64 {
	return min(1, max(0, f))
}
