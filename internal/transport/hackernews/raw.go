package hackernews

import (
	"strings"
	"time"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	"github.com/kailas-cloud/sigdex/internal/transport/platform"
)

type searchResponse struct {
	Hits []rawHit `json:"hits"`
}

type rawHit struct {
	ObjectID    string   `json:"objectID"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Author      string   `json:"author"`
	Points      *int     `json:"points"`
	NumComments *int     `json:"num_comments"`
	CreatedAtI  int64    `json:"created_at_i"`
	StoryText   string   `json:"story_text"`
	CommentText string   `json:"comment_text"`
	Tags        []string `json:"_tags"`
}

// toSignal maps an Algolia hit; false means the record is unusable.
func toSignal(h rawHit) (signal.Signal, bool) {
	if h.ObjectID == "" {
		return signal.Signal{}, false
	}
	body := h.StoryText
	if body == "" {
		body = h.CommentText
	}
	s := signal.Signal{
		ID:        signal.NewID(signal.PlatformHackerNews, h.ObjectID),
		Platform:  signal.PlatformHackerNews,
		Title:     strings.TrimSpace(h.Title),
		Body:      platform.StripHTML(body),
		Author:    h.Author,
		URL:       "https://news.ycombinator.com/item?id=" + h.ObjectID,
		CreatedAt: time.Unix(h.CreatedAtI, 0).UTC(),
	}
	if h.Points != nil {
		s.Score = *h.Points
	}
	if h.NumComments != nil {
		s.NumComments = *h.NumComments
	}
	for _, t := range h.Tags {
		switch t {
		case "ask_hn", "show_hn":
			s.Tags = append(s.Tags, t)
		}
	}
	if s.Validate() != nil {
		return signal.Signal{}, false
	}
	return s, true
}
