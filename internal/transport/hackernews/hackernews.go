package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	"github.com/kailas-cloud/sigdex/internal/transport/platform"
	"github.com/kailas-cloud/sigdex/internal/version"
)

const (
	// DefaultBaseURL is the Algolia HN search API.
	DefaultBaseURL = "https://hn.algolia.com"

	maxPageSize        = 100
	maxArticleChars    = 4000
	articleConcurrency = 3
)

// Config holds the Hacker News adapter settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// FetchArticles extracts the linked article text for stories without a body.
	FetchArticles  bool
	MaxArticles    int
	ArticleTimeout time.Duration
}

// Adapter fetches stories from the Algolia Hacker News API.
type Adapter struct {
	baseURL       string
	http          *http.Client
	articles      *http.Client
	fetchArticles bool
	maxArticles   int
	logger        *zap.Logger
}

// New creates a Hacker News adapter.
func New(cfg Config, logger *zap.Logger) *Adapter {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	articleTimeout := cfg.ArticleTimeout
	if articleTimeout <= 0 {
		articleTimeout = 10 * time.Second
	}
	maxArticles := cfg.MaxArticles
	if maxArticles <= 0 {
		maxArticles = 5
	}
	return &Adapter{
		baseURL:       strings.TrimRight(base, "/"),
		http:          &http.Client{Timeout: timeout},
		articles:      &http.Client{Timeout: articleTimeout},
		fetchArticles: cfg.FetchArticles,
		maxArticles:   maxArticles,
		logger:        logger.With(zap.String("component", "hackernews")),
	}
}

// Platform implements collect.Adapter.
func (a *Adapter) Platform() signal.Platform { return signal.PlatformHackerNews }

// Fetch runs one Algolia search over stories, Ask HN and Show HN.
func (a *Adapter) Fetch(ctx context.Context, query string, limit int) ([]signal.Signal, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("tags", "(story,ask_hn,show_hn)")
	q.Set("hitsPerPage", strconv.Itoa(platform.Clamp(limit, 1, maxPageSize)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/v1/search?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build hn request: %w", err)
	}

	var resp searchResponse
	if err := platform.DoJSON(a.http, req, string(signal.PlatformHackerNews), &resp); err != nil {
		return nil, err
	}

	out := make([]signal.Signal, 0, len(resp.Hits))
	links := make(map[int]string)
	for _, h := range resp.Hits {
		s, ok := toSignal(h)
		if !ok {
			a.logger.Debug("Dropping malformed hit", zap.String("object_id", h.ObjectID))
			continue
		}
		if s.Body == "" && h.URL != "" {
			links[len(out)] = h.URL
		}
		out = append(out, s)
	}

	if a.fetchArticles && len(links) > 0 {
		a.attachArticles(ctx, out, links)
	}
	return out, nil
}

// attachArticles fills empty bodies with readable article text.
// Each goroutine writes only its own slot; failures keep the empty body.
func (a *Adapter) attachArticles(ctx context.Context, out []signal.Signal, links map[int]string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(articleConcurrency)

	n := 0
	for i := range out {
		link, ok := links[i]
		if !ok {
			continue
		}
		if n == a.maxArticles {
			break
		}
		n++
		g.Go(func() error {
			text, err := a.extract(gctx, link)
			if err != nil {
				a.logger.Debug("Article extraction failed", zap.String("url", link), zap.Error(err))
				return nil
			}
			out[i].Body = text
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Adapter) extract(ctx context.Context, link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := a.articles.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch article: status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return platform.Truncate(strings.TrimSpace(article.TextContent), maxArticleChars), nil
}
