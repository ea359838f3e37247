package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	"github.com/kailas-cloud/sigdex/internal/transport/platform"
)

const (
	// DefaultBaseURL is the GitHub REST API.
	DefaultBaseURL = "https://api.github.com"
	// DefaultDelay separates sequential page requests.
	DefaultDelay = time.Second

	maxPageSize = 100
	maxPages    = 5
)

// Config holds the GitHub adapter settings.
type Config struct {
	BaseURL string
	Token   string // optional; raises the search rate limit
	Delay   time.Duration
	Timeout time.Duration
}

// Adapter searches GitHub issues ranked by reactions.
type Adapter struct {
	baseURL string
	token   string
	delay   time.Duration
	http    *http.Client
	logger  *zap.Logger
}

// New creates a GitHub adapter.
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
		delay:   max(cfg.Delay, 0),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "github")),
	}
}

// Platform implements collect.Adapter.
func (a *Adapter) Platform() signal.Platform { return signal.PlatformGitHub }

// Fetch pages through issue search until limit items are collected,
// the results run out, or maxPages is reached. Pages are requested
// sequentially with a pause between them. A failure after the first
// page returns what was collected so far.
func (a *Adapter) Fetch(ctx context.Context, query string, limit int) ([]signal.Signal, error) {
	perPage := platform.Clamp(limit, 1, maxPageSize)
	var out []signal.Signal

	for page := 1; page <= maxPages && len(out) < limit; page++ {
		if page > 1 {
			if err := platform.Pause(ctx, a.delay); err != nil {
				return out, err
			}
		}
		items, total, err := a.page(ctx, query, perPage, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			a.logger.Warn("Issue search page failed", zap.Int("page", page), zap.Error(err))
			break
		}
		for _, it := range items {
			s, ok := toSignal(it)
			if !ok {
				a.logger.Debug("Dropping malformed issue", zap.Int64("id", it.ID))
				continue
			}
			out = append(out, s)
		}
		if len(items) < perPage || page*perPage >= total {
			break
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *Adapter) page(ctx context.Context, query string, perPage, page int) ([]rawIssue, int, error) {
	q := url.Values{}
	q.Set("q", query+" is:issue")
	q.Set("sort", "reactions")
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/search/issues?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	var resp searchResponse
	if err := platform.DoJSON(a.http, req, string(signal.PlatformGitHub), &resp); err != nil {
		return nil, 0, err
	}
	return resp.Items, resp.TotalCount, nil
}
