package redis

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/kailas-cloud/sigdex/internal/db"
	"github.com/kailas-cloud/sigdex/internal/domain/search/filter"
)

func TestBuildFilter(t *testing.T) {
	gte := 1767225600.0
	lte := 1769904000.0
	dates, _ := filter.NewRangeFilter(nil, &gte, nil, &lte)
	dateCond, _ := filter.NewRange("created_at", dates)
	platforms, _ := filter.NewAnyOf("platform", []string{"reddit", "hackernews"})
	tag, _ := filter.NewMatch("tags", "no-code")
	text, _ := filter.NewText([]string{"title", "body"}, []string{"stripe", "api-key"})
	neutral, _ := filter.NewMatch("sentiment", "neutral")
	saas, _ := filter.NewMatch("domain", "saas")
	fintech, _ := filter.NewMatch("domain", "fintech")

	must := func(c ...filter.Condition) filter.Expression {
		e, _ := filter.NewExpression(c, nil, nil)
		return e
	}
	tests := []struct {
		name string
		expr filter.Expression
		want string
	}{
		{"empty", filter.Expression{}, ""},
		{"any-of", must(platforms), "@platform:{reddit|hackernews}"},
		{"timestamps stay exact", must(dateCond), "@created_at:[1767225600 1769904000]"},
		{"escaped tag", must(tag), `@tags:{no\-code}`},
		{"text", must(text), "@title|body:(stripe api key)"},
		{"must is anded", must(platforms, tag), `@platform:{reddit|hackernews} @tags:{no\-code}`},
		{"should and must_not", func() filter.Expression {
			e, _ := filter.NewExpression(nil, []filter.Condition{saas, fintech}, []filter.Condition{neutral})
			return e
		}(), "(@domain:{saas} | @domain:{fintech}) -@sentiment:{neutral}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildFilter(tt.expr); got != tt.want {
				t.Errorf("buildFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNumericClause(t *testing.T) {
	gt, lt, gte := 5.0, 100.0, 0.5
	tests := []struct {
		name string
		rng  func() filter.Range
		want string
	}{
		{"exclusive", func() filter.Range { r, _ := filter.NewRangeFilter(&gt, nil, &lt, nil); return r }, `@score:[(5 (100]`},
		{"open upper", func() filter.Range { r, _ := filter.NewRangeFilter(nil, &gte, nil, nil); return r }, `@score:[0.5 +inf]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := numericClause("score", tt.rng()); got != tt.want {
				t.Errorf("numericClause() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTextQuery(t *testing.T) {
	p, _ := filter.NewMatch("problem", "true")
	expr, _ := filter.NewExpression([]filter.Condition{p}, nil, nil)

	tests := []struct {
		name string
		q    db.TextQuery
		want string
	}{
		{
			name: "with filters",
			q:    db.TextQuery{Terms: "crm", TextFields: []string{"title", "body"}, Filters: expr},
			want: "@problem:{true} (@title|body:(crm))",
		},
		{
			name: "terms also match tags",
			q:    db.TextQuery{Terms: "CI flaky ci", TextFields: []string{"title"}, TagField: "tags"},
			want: "((@title:(ci | flaky)) | @tags:{ci|flaky})",
		},
		{
			name: "punctuation only",
			q:    db.TextQuery{Terms: "?!", TextFields: []string{"title"}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildTextQuery(&tt.q); got != tt.want {
				t.Errorf("buildTextQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildKNNArgs(t *testing.T) {
	p, _ := filter.NewMatch("platform", "github")
	expr, _ := filter.NewExpression([]filter.Condition{p}, nil, nil)

	args := buildKNNArgs(&db.KNNQuery{
		IndexName:    "signals",
		VectorField:  "embedding",
		Vector:       []float32{1, 0},
		K:            7,
		Filters:      expr,
		ReturnFields: []string{"title"},
	})
	if args[1] != "(@platform:{github})=>[KNN 7 @embedding $BLOB AS __vector_score]" {
		t.Errorf("unexpected query %q", args[1])
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{"RETURN 2 title __vector_score", "LIMIT 0 7", "DIALECT 2"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}

	bare := buildKNNArgs(&db.KNNQuery{IndexName: "signals", VectorField: "embedding", Vector: []float32{1}, K: 1})
	if !strings.HasPrefix(bare[1], "*=>") {
		t.Errorf("unfiltered query should match all docs, got %q", bare[1])
	}
}

func TestQueryTerms(t *testing.T) {
	got := queryTerms("Slack-alternative, SLACK for teams (2026)")
	want := []string{"slack", "alternative", "for", "teams", "2026"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("queryTerms() = %v, want %v", got, want)
	}

	var words []string
	for i := range maxQueryTerms + 8 {
		words = append(words, "w"+strconv.Itoa(i))
	}
	long := strings.Join(words, " ")
	if n := len(queryTerms(long)); n != maxQueryTerms {
		t.Errorf("expected %d terms, got %d", maxQueryTerms, n)
	}
}

func TestEscapers(t *testing.T) {
	if got := escapeQuery(`hello "world" @user {tag}`); got != `hello \"world\" \@user \{tag\}` {
		t.Errorf("escapeQuery = %q", got)
	}
	if got := escapeQuery(`C:\tmp`); got != `C:\\tmp` {
		t.Errorf("escapeQuery backslash = %q", got)
	}
	if got := escapeTag("ci/cd pipeline"); got != `ci\/cd\ pipeline` {
		t.Errorf("escapeTag = %q", got)
	}
}

func TestVectorToBytes(t *testing.T) {
	b := vectorToBytes([]float32{1.0, -2.5})
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32([]byte(b[4:]))); got != -2.5 {
		t.Errorf("second component = %v, want -2.5", got)
	}
}
