package signal

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := Signal{ID: "reddit_abc", Platform: PlatformReddit, Title: "hello"}

	tests := []struct {
		name    string
		mutate  func(s *Signal)
		wantErr bool
	}{
		{"valid", func(_ *Signal) {}, false},
		{"missing id", func(s *Signal) { s.ID = "" }, true},
		{"bad platform", func(s *Signal) { s.Platform = "myspace" }, true},
		{"id without prefix", func(s *Signal) { s.ID = "abc" }, true},
		{"negative score", func(s *Signal) { s.Score = -1 }, true},
		{"negative comments", func(s *Signal) { s.NumComments = -3 }, true},
		{"no content", func(s *Signal) { s.Title = " " }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			err := s.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform(" Reddit ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != PlatformReddit {
		t.Errorf("expected reddit, got %q", p)
	}
	if _, err := ParsePlatform("friendster"); err == nil {
		t.Error("expected error for unknown platform")
	}
}

func TestNormalizeQuery(t *testing.T) {
	if got := NormalizeQuery("  Invoice   Tools\tFOR  freelancers "); got != "invoice tools for freelancers" {
		t.Errorf("unexpected normalization: %q", got)
	}
}

func TestNewCollectionRequest(t *testing.T) {
	req, err := NewCollectionRequest("CRM pain", []Platform{PlatformReddit, PlatformGitHub}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Query != "crm pain" {
		t.Errorf("expected normalized query, got %q", req.Query)
	}
	if req.Quota(PlatformGitHub) != 10 {
		t.Errorf("expected quota 10, got %d", req.Quota(PlatformGitHub))
	}
	if req.Quota(PlatformHackerNews) != 25 {
		t.Errorf("expected default quota 25, got %d", req.Quota(PlatformHackerNews))
	}

	if _, err := NewCollectionRequest("   ", nil, 10); err == nil {
		t.Error("expected error for empty query")
	}
	if _, err := NewCollectionRequest(strings.Repeat("a", MaxCollectQueryLength+1), nil, 10); err == nil {
		t.Error("expected error for long query")
	}
}

func TestTextAndEngagement(t *testing.T) {
	s := Signal{Title: "t", Body: "b", Score: 3, NumComments: 4}
	if s.Text() != "t\nb" {
		t.Errorf("unexpected text %q", s.Text())
	}
	if s.Engagement() != 7 {
		t.Errorf("expected engagement 7, got %d", s.Engagement())
	}
	if !(&Signal{Tags: []string{"SaaS"}}).HasTag("saas") {
		t.Error("expected case-insensitive tag match")
	}
}
