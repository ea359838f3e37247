package github

import (
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

type searchResponse struct {
	TotalCount int        `json:"total_count"`
	Items      []rawIssue `json:"items"`
}

type rawIssue struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	HTMLURL   string    `json:"html_url"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	User      *struct {
		Login string `json:"login"`
	} `json:"user"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Reactions *struct {
		TotalCount int `json:"total_count"`
	} `json:"reactions"`
	PullRequest *struct{} `json:"pull_request"`
}

// toSignal maps a raw issue; pull requests and malformed records are dropped.
func toSignal(it rawIssue) (signal.Signal, bool) {
	if it.ID <= 0 || it.PullRequest != nil {
		return signal.Signal{}, false
	}
	s := signal.Signal{
		ID:          signal.NewID(signal.PlatformGitHub, strconv.FormatInt(it.ID, 10)),
		Platform:    signal.PlatformGitHub,
		Title:       strings.TrimSpace(it.Title),
		Body:        strings.TrimSpace(it.Body),
		URL:         it.HTMLURL,
		NumComments: it.Comments,
		CreatedAt:   it.CreatedAt.UTC(),
	}
	if it.User != nil {
		s.Author = it.User.Login
	}
	if it.Reactions != nil {
		s.Score = it.Reactions.TotalCount
	}
	for _, l := range it.Labels {
		if n := strings.ToLower(strings.TrimSpace(l.Name)); n != "" {
			s.Tags = append(s.Tags, n)
		}
	}
	if s.Validate() != nil {
		return signal.Signal{}, false
	}
	return s, true
}
