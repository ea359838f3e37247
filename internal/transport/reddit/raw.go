package reddit

import (
	"strings"
	"time"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

type listingResponse struct {
	Data struct {
		Children []struct {
			Kind string  `json:"kind"`
			Data rawPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type rawPost struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	Author        string  `json:"author"`
	Permalink     string  `json:"permalink"`
	Subreddit     string  `json:"subreddit"`
	LinkFlairText string  `json:"link_flair_text"`
	Score         int     `json:"score"`
	NumComments   int     `json:"num_comments"`
	CreatedUTC    float64 `json:"created_utc"`
	Over18        bool    `json:"over_18"`
}

// toSignal maps a raw post; false means the record is unusable.
func toSignal(p rawPost) (signal.Signal, bool) {
	if p.ID == "" || p.Over18 {
		return signal.Signal{}, false
	}
	s := signal.Signal{
		ID:          signal.NewID(signal.PlatformReddit, p.ID),
		Platform:    signal.PlatformReddit,
		Title:       strings.TrimSpace(p.Title),
		Body:        strings.TrimSpace(p.Selftext),
		Author:      p.Author,
		Score:       max(p.Score, 0),
		NumComments: max(p.NumComments, 0),
		CreatedAt:   time.Unix(int64(p.CreatedUTC), 0).UTC(),
	}
	if p.Permalink != "" {
		s.URL = "https://reddit.com" + p.Permalink
	}
	if p.Subreddit != "" {
		s.Tags = append(s.Tags, strings.ToLower(p.Subreddit))
	}
	if f := strings.TrimSpace(p.LinkFlairText); f != "" {
		s.Tags = append(s.Tags, strings.ToLower(f))
	}
	if s.Validate() != nil {
		return signal.Signal{}, false
	}
	return s, true
}
