package reddit

import (
	"context"
	"errors"
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
	// DefaultBaseURL is the public Reddit JSON endpoint.
	DefaultBaseURL = "https://www.reddit.com"
	// DefaultDelay separates sequential subreddit calls.
	DefaultDelay = time.Second

	maxPageSize = 100
)

// Config holds the Reddit adapter settings.
type Config struct {
	BaseURL    string
	Subreddits []string
	Delay      time.Duration
	Timeout    time.Duration
}

// Adapter fetches Reddit posts through the unauthenticated search API.
type Adapter struct {
	baseURL    string
	subreddits []string
	delay      time.Duration
	http       *http.Client
	logger     *zap.Logger
}

// New creates a Reddit adapter.
func New(cfg Config, logger *zap.Logger) *Adapter {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	delay := cfg.Delay
	if delay < 0 {
		delay = 0
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Adapter{
		baseURL:    strings.TrimRight(base, "/"),
		subreddits: cfg.Subreddits,
		delay:      delay,
		http:       &http.Client{Timeout: timeout},
		logger:     logger.With(zap.String("component", "reddit")),
	}
}

// Platform implements collect.Adapter.
func (a *Adapter) Platform() signal.Platform { return signal.PlatformReddit }

// Fetch searches each configured subreddit in turn, pausing between calls.
// With no subreddits it searches all of Reddit. The limit is split evenly
// across subreddits. A failing subreddit is logged and skipped; the call
// fails only when every subreddit failed.
func (a *Adapter) Fetch(ctx context.Context, query string, limit int) ([]signal.Signal, error) {
	if len(a.subreddits) == 0 {
		return a.search(ctx, "/search.json", query, limit, false)
	}

	per := (limit + len(a.subreddits) - 1) / len(a.subreddits)
	var (
		out  []signal.Signal
		errs []error
	)
	for i, sub := range a.subreddits {
		if i > 0 {
			if err := platform.Pause(ctx, a.delay); err != nil {
				return out, err
			}
		}
		got, err := a.search(ctx, "/r/"+url.PathEscape(sub)+"/search.json", query, per, true)
		if err != nil {
			a.logger.Warn("Subreddit search failed", zap.String("subreddit", sub), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		out = append(out, got...)
	}
	if len(errs) == len(a.subreddits) {
		return nil, fmt.Errorf("reddit: all subreddits failed: %w", errors.Join(errs...))
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *Adapter) search(ctx context.Context, path, query string, limit int, restrict bool) ([]signal.Signal, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", "relevance")
	q.Set("t", "year")
	q.Set("limit", strconv.Itoa(platform.Clamp(limit, 1, maxPageSize)))
	if restrict {
		q.Set("restrict_sr", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build reddit request: %w", err)
	}

	var listing listingResponse
	if err := platform.DoJSON(a.http, req, string(signal.PlatformReddit), &listing); err != nil {
		return nil, err
	}

	out := make([]signal.Signal, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		s, ok := toSignal(child.Data)
		if !ok {
			a.logger.Debug("Dropping malformed post", zap.String("id", child.Data.ID))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
