// Package analyze holds the pure text analyzers applied to every collected signal.
package analyze

import "github.com/kailas-cloud/sigdex/internal/domain/signal"

// Analyze sets sentiment, quality metrics and domain on s from its title and body.
func Analyze(s *signal.Signal) {
	text := s.Text()
	sent := Sentiment(text)
	q := Quality(text)
	s.Sentiment = &sent
	s.Quality = &q
	s.DomainContext = ClassifyDomain(text, s.Tags)
}
