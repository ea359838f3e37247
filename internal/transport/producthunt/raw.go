package producthunt

import (
	"strings"
	"time"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

type postsResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node rawPost `json:"node"`
			} `json:"edges"`
		} `json:"posts"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type rawPost struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Tagline       string    `json:"tagline"`
	Description   string    `json:"description"`
	URL           string    `json:"url"`
	VotesCount    int       `json:"votesCount"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
	User          *struct {
		Username string `json:"username"`
	} `json:"user"`
	Topics struct {
		Edges []struct {
			Node struct {
				Name string `json:"name"`
				Slug string `json:"slug"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"topics"`
}

// toSignal maps a raw post; false means the record is unusable.
func toSignal(p rawPost) (signal.Signal, bool) {
	if p.ID == "" {
		return signal.Signal{}, false
	}
	body := strings.TrimSpace(p.Tagline)
	if d := strings.TrimSpace(p.Description); d != "" && d != body {
		body = strings.TrimSpace(body + "\n" + d)
	}
	s := signal.Signal{
		ID:          signal.NewID(signal.PlatformProductHunt, p.ID),
		Platform:    signal.PlatformProductHunt,
		Title:       strings.TrimSpace(p.Name),
		Body:        body,
		URL:         p.URL,
		Score:       p.VotesCount,
		NumComments: p.CommentsCount,
		CreatedAt:   p.CreatedAt.UTC(),
	}
	if p.User != nil {
		s.Author = p.User.Username
	}
	for _, e := range p.Topics.Edges {
		tag := e.Node.Slug
		if tag == "" {
			tag = Topic(e.Node.Name)
		}
		if tag != "" {
			s.Tags = append(s.Tags, tag)
		}
	}
	if s.Validate() != nil {
		return signal.Signal{}, false
	}
	return s, true
}
