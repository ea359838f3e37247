package pipeline

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Category tags added when keyword groups match.
const (
	TagProblem  = "problem"
	TagSolution = "solution"
)

var problemKeywords = []string{
	"problem", "issue", "struggle", "struggling", "frustrated", "frustrating", "pain point",
	"annoying", "broken", "doesn't work", "does not work", "can't", "cannot", "looking for",
	"how do i", "is there a way", "wish there was", "need help", "alternative to", "hate",
}

var solutionKeywords = []string{
	"solution", "solved", "fix", "fixed", "workaround", "built", "launched", "released",
	"introducing", "open source", "i made", "we made", "recommend", "tool for",
}

var techKeywords = []string{
	"python", "javascript", "typescript", "golang", "rust", "java", "ruby", "php", "swift", "kotlin",
	"react", "vue", "svelte", "nextjs", "node", "django", "rails", "docker", "kubernetes", "aws",
	"gcp", "azure", "postgres", "mysql", "redis", "mongodb", "graphql", "llm", "openai", "terraform",
}

// productRe captures a capitalized name after a usage or comparison phrase.
var productRe = regexp.MustCompile(
	`\b(?i:using|tried|switched to|switching to|moved to|migrated to|alternative to|alternatives to|instead of|replacing|built with|compared to)\s+([A-Z][A-Za-z0-9.+-]{1,30})`,
)

// enhanceTags appends keyword and product tags, dedups case-insensitively
// and caps the total. It returns whether a problem keyword matched.
func enhanceTags(s *signal.Signal, maxTags, maxProducts int) bool {
	text := s.Text()
	lower := " " + strings.ToLower(text) + " "

	added := make([]string, 0, 8)
	isProblem := matchesAny(lower, problemKeywords)
	if isProblem {
		added = append(added, TagProblem)
	}
	if matchesAny(lower, solutionKeywords) {
		added = append(added, TagSolution)
	}
	for _, kw := range techKeywords {
		if containsWord(lower, kw) {
			added = append(added, kw)
		}
	}
	added = append(added, extractProducts(text, maxProducts)...)

	s.Tags = mergeTags(s.Tags, added, maxTags)
	return isProblem
}

func extractProducts(text string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, m := range productRe.FindAllStringSubmatch(text, -1) {
		if len(out) >= limit {
			break
		}
		name := strings.ToLower(strings.TrimRight(m[1], ".-+"))
		if len(name) < 2 {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func mergeTags(existing, added []string, limit int) []string {
	out := make([]string, 0, min(len(existing)+len(added), limit))
	seen := make(map[string]struct{}, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, t := range list {
			key := strings.ToLower(strings.TrimSpace(t))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			if len(out) >= limit {
				return out
			}
			seen[key] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if containsWord(text, kw) {
			return true
		}
	}
	return false
}

// containsWord matches kw on word boundaries. text must be lowercased and
// padded with a leading space.
func containsWord(text, kw string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)
		if i > 0 && !isWordByte(text[i-1]) && (end >= len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
