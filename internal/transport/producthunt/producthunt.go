package producthunt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	"github.com/kailas-cloud/sigdex/internal/transport/platform"
)

// DefaultBaseURL is the Product Hunt v2 API host.
const DefaultBaseURL = "https://api.producthunt.com"

const maxPageSize = 50

// ErrNoToken is returned when the adapter is used without credentials.
var ErrNoToken = errors.New("producthunt: api token not configured")

const postsQuery = `query Posts($first: Int!, $topic: String) {
  posts(first: $first, order: VOTES, topic: $topic) {
    edges {
      node {
        id name tagline description url votesCount commentsCount createdAt
        user { username }
        topics(first: 10) { edges { node { name slug } } }
      }
    }
  }
}`

// Config holds the Product Hunt adapter settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Adapter fetches top-voted Product Hunt posts for a topic over GraphQL.
type Adapter struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a Product Hunt adapter.
func New(cfg Config, logger *zap.Logger) *Adapter {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Adapter{
		baseURL: strings.TrimRight(base, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "producthunt")),
	}
}

// Platform implements collect.Adapter.
func (a *Adapter) Platform() signal.Platform { return signal.PlatformProductHunt }

// Enabled reports whether a token is configured. The API rejects anonymous calls.
func (a *Adapter) Enabled() bool { return a.token != "" }

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Fetch queries posts for the topic derived from the query text.
func (a *Adapter) Fetch(ctx context.Context, query string, limit int) ([]signal.Signal, error) {
	if !a.Enabled() {
		return nil, ErrNoToken
	}
	body, err := json.Marshal(graphQLRequest{
		Query: postsQuery,
		Variables: map[string]any{
			"first": platform.Clamp(limit, 1, maxPageSize),
			"topic": Topic(query),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/api/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build producthunt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	var resp postsResponse
	if err := platform.DoJSON(a.http, req, string(signal.PlatformProductHunt), &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("producthunt graphql: %s: %w", resp.Errors[0].Message, domain.ErrPlatformFailed)
	}

	out := make([]signal.Signal, 0, len(resp.Data.Posts.Edges))
	for _, e := range resp.Data.Posts.Edges {
		s, ok := toSignal(e.Node)
		if !ok {
			a.logger.Debug("Dropping malformed post", zap.String("id", e.Node.ID))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Topic turns free text into a Product Hunt topic slug ("Developer Tools" -> "developer-tools").
func Topic(query string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(query), "-"), "-")
}
