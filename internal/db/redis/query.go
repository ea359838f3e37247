package redis

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/sigdex/internal/db"
	"github.com/kailas-cloud/sigdex/internal/domain/search/filter"
)

// maxQueryTerms bounds the OR-expansion of a keyword query.
const maxQueryTerms = 32

// Characters with special meaning inside a TAG {...} clause and inside
// free-text query terms respectively.
var (
	tagEscaper   = newEscaper(",.<>{}|\"':;!@#$%^&*()-+=~/ ")
	queryEscaper = newEscaper(`\'"@{}()|-~*[]!%^$<>=;+`)
)

func newEscaper(special string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(special))
	for _, r := range special {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

func escapeQuery(s string) string { return queryEscaper.Replace(s) }

func escapeTag(s string) string { return tagEscaper.Replace(s) }

// queryTerms lowercases and splits free text into unique word terms.
func queryTerms(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, min(len(words), maxQueryTerms))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == maxQueryTerms {
			break
		}
	}
	return out
}

// buildKNNArgs renders FT.SEARCH arguments for a filtered KNN query.
func buildKNNArgs(q *db.KNNQuery) []string {
	base := buildFilter(q.Filters)
	if base == "" {
		base = "*"
	} else {
		base = "(" + base + ")"
	}
	query := fmt.Sprintf("%s=>[KNN %d @%s $BLOB AS %s]", base, q.K, q.VectorField, vectorScoreField)

	args := []string{q.IndexName, query}
	if n := len(q.ReturnFields); n > 0 {
		args = append(args, "RETURN", strconv.Itoa(n+1))
		args = append(args, q.ReturnFields...)
		args = append(args, vectorScoreField)
	}
	return append(args,
		"SORTBY", vectorScoreField, "ASC",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	)
}

// buildTextQuery renders (@title|body:(a | b)) | (@tags:{a|b}) behind the
// filter prefix. It returns "" when the query has no searchable terms.
func buildTextQuery(q *db.TextQuery) string {
	terms := queryTerms(q.Terms)
	if len(terms) == 0 {
		return ""
	}

	words := make([]string, len(terms))
	for i, t := range terms {
		words[i] = escapeQuery(t)
	}
	match := fmt.Sprintf("(@%s:(%s))", strings.Join(q.TextFields, "|"), strings.Join(words, " | "))

	if q.TagField != "" {
		match = fmt.Sprintf("(%s | %s)", match, tagClause(q.TagField, terms))
	}
	if prefix := buildFilter(q.Filters); prefix != "" {
		return prefix + " " + match
	}
	return match
}

// buildFilter translates a filter expression into an FT.SEARCH pre-filter.
// Must clauses are ANDed, should clauses form one OR group, must-not clauses are negated.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	var parts []string
	for _, c := range expr.Must() {
		if s := renderCondition(c); s != "" {
			parts = append(parts, s)
		}
	}

	var anyOf []string
	for _, c := range expr.Should() {
		if s := renderCondition(c); s != "" {
			anyOf = append(anyOf, s)
		}
	}
	if len(anyOf) > 0 {
		parts = append(parts, "("+strings.Join(anyOf, " | ")+")")
	}

	for _, c := range expr.MustNot() {
		if s := renderCondition(c); s != "" {
			parts = append(parts, "-"+s)
		}
	}
	return strings.Join(parts, " ")
}

func renderCondition(c filter.Condition) string {
	switch {
	case c.IsMatch():
		return tagClause(c.Key(), []string{c.Match()})
	case c.IsAnyOf():
		return tagClause(c.Key(), c.Values())
	case c.IsRange():
		return numericClause(c.Key(), *c.Range())
	case c.IsText():
		return textClause(c.Keys(), c.Values())
	default:
		return ""
	}
}

func tagClause(field string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = escapeTag(v)
	}
	return "@" + field + ":{" + strings.Join(escaped, "|") + "}"
}

// textClause requires every term of every value to appear in one of the fields.
func textClause(fields, values []string) string {
	var terms []string
	for _, v := range values {
		for _, t := range queryTerms(v) {
			terms = append(terms, escapeQuery(t))
		}
	}
	if len(terms) == 0 {
		return ""
	}
	return "@" + strings.Join(fields, "|") + ":(" + strings.Join(terms, " ") + ")"
}

func numericClause(field string, r filter.Range) string {
	lo, hi := "-inf", "+inf"
	switch {
	case r.GT() != nil:
		lo = "(" + formatNumber(*r.GT())
	case r.GTE() != nil:
		lo = formatNumber(*r.GTE())
	}
	switch {
	case r.LT() != nil:
		hi = "(" + formatNumber(*r.LT())
	case r.LTE() != nil:
		hi = formatNumber(*r.LTE())
	}
	return "@" + field + ":[" + lo + " " + hi + "]"
}

// formatNumber avoids exponent notation so unix timestamps stay exact.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// vectorToBytes encodes v as little-endian FLOAT32, the layout HNSW fields expect.
func vectorToBytes(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return string(buf)
}
