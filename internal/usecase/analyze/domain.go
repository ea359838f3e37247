package analyze

import (
	"strings"
)

// ClassifyDomain returns the domain with the most keyword hits across text
// and tags. Ties go to the earlier domain; no hit yields DefaultDomain.
func ClassifyDomain(text string, tags []string) string {
	lower := " " + strings.ToLower(text) + " "
	lowerTags := make([]string, len(tags))
	for i, t := range tags {
		lowerTags[i] = strings.ToLower(t)
	}

	best, bestHits := DefaultDomain, 0
	for _, d := range domainTable {
		hits := 0
		for _, kw := range d.keywords {
			if containsWord(lower, kw) || tagMatches(lowerTags, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = d.name, hits
		}
	}
	return best
}

// containsWord matches kw on word boundaries so "ai" does not hit "said".
func containsWord(text, kw string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)
		if !isWordByte(text[i-1]) && (end >= len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func tagMatches(tags []string, kw string) bool {
	for _, t := range tags {
		if t == kw {
			return true
		}
	}
	return false
}
