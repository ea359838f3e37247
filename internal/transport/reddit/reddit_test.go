package reddit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

const listingJSON = `{"data":{"children":[
 {"kind":"t3","data":{"id":"abc","title":"Invoicing is a nightmare","selftext":"Every month I lose hours","author":"alice","permalink":"/r/saas/comments/abc/x/","subreddit":"SaaS","link_flair_text":"Question","score":42,"num_comments":7,"created_utc":1700000000.0}},
 {"kind":"t3","data":{"id":"","title":"no id"}},
 {"kind":"t3","data":{"id":"neg","title":"downvoted","score":-5,"created_utc":1700000100.0}},
 {"kind":"t3","data":{"id":"nsfw","title":"x","over_18":true}}
]}}`

func TestFetch_MapsPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "invoice tool" || r.URL.Query().Get("t") != "year" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(listingJSON))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL}, zap.NewNop())
	got, err := a.Fetch(context.Background(), "invoice tool", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 valid posts, got %d", len(got))
	}
	if got[1].ID != "reddit_neg" || got[1].Score != 0 {
		t.Errorf("downvoted post should be kept with score 0, got %s score %d", got[1].ID, got[1].Score)
	}
	s := got[0]
	if s.ID != "reddit_abc" || s.Platform != signal.PlatformReddit {
		t.Errorf("unexpected identity %s/%s", s.ID, s.Platform)
	}
	if s.URL != "https://reddit.com/r/saas/comments/abc/x/" {
		t.Errorf("unexpected url %s", s.URL)
	}
	if s.Engagement() != 49 || !s.CreatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unexpected engagement/time %d %v", s.Engagement(), s.CreatedAt)
	}
	if !s.HasTag("saas") || !s.HasTag("question") {
		t.Errorf("expected subreddit and flair tags, got %v", s.Tags)
	}
}

func TestFetch_SubredditsSequentialWithDelay(t *testing.T) {
	var calls atomic.Int32
	var last time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		if calls.Add(1) > 1 && now.Sub(last) < 30*time.Millisecond {
			t.Errorf("expected pause between subreddit calls, got %v", now.Sub(last))
		}
		last = now
		if !strings.HasPrefix(r.URL.Path, "/r/") || r.URL.Query().Get("restrict_sr") != "1" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if r.URL.Query().Get("limit") != "3" {
			t.Errorf("expected per-subreddit limit 3, got %s", r.URL.Query().Get("limit"))
		}
		_, _ = w.Write([]byte(listingJSON))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL, Subreddits: []string{"saas", "startups"}, Delay: 30 * time.Millisecond}, zap.NewNop())
	got, err := a.Fetch(context.Background(), "crm", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
	if len(got) != 4 {
		t.Errorf("expected two posts per subreddit, got %d", len(got))
	}
}

func TestFetch_PartialSubredditFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/r/private/") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(listingJSON))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL, Subreddits: []string{"private", "saas"}}, zap.NewNop())
	got, err := a.Fetch(context.Background(), "crm", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected results from the healthy subreddit, got %d", len(got))
	}
}

func TestFetch_AllFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL, Subreddits: []string{"a"}}, zap.NewNop())
	_, err := a.Fetch(context.Background(), "crm", 10)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}
