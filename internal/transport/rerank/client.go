package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/domain"
)

const (
	defaultProbeTTL = 30 * time.Second
	defaultTimeout  = 10 * time.Second
)

// Candidate is one document in the rerank window.
type Candidate = domain.RerankCandidate

// Config holds the reranking endpoint settings.
type Config struct {
	BaseURL  string
	APIKey   string
	Model    string
	ProbeTTL time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Client talks to a cross-encoder service exposing the common
// POST /v1/rerank contract (Cohere, Jina, TEI, Infinity).
type Client struct {
	baseURL  string
	apiKey   string
	model    string
	probeTTL time.Duration
	http     *http.Client
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	probedAt  time.Time
	available bool
}

// New creates a rerank client.
func New(cfg *Config) *Client {
	ttl := cfg.ProbeTTL
	if ttl <= 0 {
		ttl = defaultProbeTTL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		probeTTL: ttl,
		http:     &http.Client{Timeout: timeout},
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// Available reports whether the endpoint answered its health probe.
// The answer is cached for the probe TTL; the lock is not held during the call.
func (c *Client) Available(ctx context.Context) bool {
	c.mu.Lock()
	if !c.probedAt.IsZero() && c.now().Sub(c.probedAt) < c.probeTTL {
		ok := c.available
		c.mu.Unlock()
		return ok
	}
	c.mu.Unlock()

	ok := c.probe(ctx)

	c.mu.Lock()
	c.available = ok
	c.probedAt = c.now()
	c.mu.Unlock()
	return ok
}

func (c *Client) probe(ctx context.Context) bool {
	if c.baseURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return false
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Rerank probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < http.StatusMultipleChoices
}

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores candidates against query and returns their ids, best first.
// Candidates the service does not score are dropped.
func (c *Client) Rerank(ctx context.Context, query string, candidates []Candidate) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	docs := make([]string, len(candidates))
	for i, cand := range candidates {
		docs[i] = cand.Text
	}
	body, err := json.Marshal(rerankRequest{Model: c.model, Query: query, Documents: docs, TopN: len(docs)})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.markDown()
		return nil, fmt.Errorf("rerank: %w: %w", domain.ErrRerankUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode >= http.StatusInternalServerError {
			c.markDown()
		}
		return nil, fmt.Errorf("rerank status %d: %s: %w", resp.StatusCode, snippet, domain.ErrRerankUnavailable)
	}

	var rr rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w: %w", domain.ErrRerankUnavailable, err)
	}

	sort.SliceStable(rr.Results, func(i, j int) bool {
		return rr.Results[i].RelevanceScore > rr.Results[j].RelevanceScore
	})
	ids := make([]string, 0, len(rr.Results))
	seen := make(map[int]bool, len(rr.Results))
	for _, r := range rr.Results {
		if r.Index < 0 || r.Index >= len(candidates) || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		ids = append(ids, candidates[r.Index].ID)
	}
	return ids, nil
}

func (c *Client) markDown() {
	c.mu.Lock()
	c.available = false
	c.probedAt = c.now()
	c.mu.Unlock()
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
