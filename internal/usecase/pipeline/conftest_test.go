package pipeline

import (
	"time"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func mk(native, title, body string, score, comments int, age time.Duration) signal.Signal {
	s := signal.Signal{
		ID:          signal.NewID(signal.PlatformReddit, native),
		Platform:    signal.PlatformReddit,
		Title:       title,
		Body:        body,
		Score:       score,
		NumComments: comments,
	}
	if age > 0 {
		s.CreatedAt = testNow.Add(-age)
	}
	return s
}

func ids(signals []signal.Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.ID
	}
	return out
}

const longBody = "We have been evaluating different approaches for a while and " +
	"would like to hear how other teams handle this in practice."
