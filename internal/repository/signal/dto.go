package signal

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	domsig "github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Hash fields that are stored but not indexed.
const (
	fieldID                  = "id"
	fieldSentimentComparison = "sentiment_comparative"
	fieldSentimentConfidence = "sentiment_confidence"
	fieldTextLength          = "text_length"
	fieldWordCount           = "word_count"
	fieldReadability         = "readability"
	fieldHasCode             = "has_code"
	fieldHasLinks            = "has_links"
	fieldSpamScore           = "spam_score"
)

// ReturnFields lists every stored field except the embedding blob.
var ReturnFields = []string{
	fieldID,
	domsig.FieldPlatform,
	domsig.FieldTitle,
	domsig.FieldBody,
	domsig.FieldAuthor,
	domsig.FieldURL,
	domsig.FieldTags,
	domsig.FieldScore,
	domsig.FieldNumComments,
	domsig.FieldCreatedAt,
	domsig.FieldIndexedAt,
	domsig.FieldSentiment,
	domsig.FieldSentimentScore,
	fieldSentimentComparison,
	fieldSentimentConfidence,
	domsig.FieldDomain,
	domsig.FieldQualityScore,
	domsig.FieldProblem,
	fieldTextLength,
	fieldWordCount,
	fieldReadability,
	fieldHasCode,
	fieldHasLinks,
	fieldSpamScore,
}

// buildHashFields flattens a Signal into HSET field/value pairs.
func buildHashFields(s *domsig.Signal) map[string]string {
	m := map[string]string{
		fieldID:                    s.ID,
		domsig.FieldPlatform:       string(s.Platform),
		domsig.FieldTitle:          s.Title,
		domsig.FieldBody:           s.Body,
		domsig.FieldAuthor:         s.Author,
		domsig.FieldURL:            s.URL,
		domsig.FieldTags:           joinTags(s.Tags),
		domsig.FieldScore:          strconv.Itoa(s.Score),
		domsig.FieldNumComments:    strconv.Itoa(s.NumComments),
		domsig.FieldCreatedAt:      strconv.FormatInt(s.CreatedAt.Unix(), 10),
		domsig.FieldIndexedAt:      strconv.FormatInt(s.IndexedAt.Unix(), 10),
		domsig.FieldQualityScore:   formatFloat(s.QualityScore),
		domsig.FieldProblem:        strconv.FormatBool(s.IsProblem),
		domsig.FieldDomain:         s.DomainContext,
		domsig.FieldSentiment:      string(domsig.SentimentNeutral),
		domsig.FieldSentimentScore: "0",
	}
	if s.Sentiment != nil {
		m[domsig.FieldSentiment] = string(s.Sentiment.Label)
		m[domsig.FieldSentimentScore] = formatFloat(s.Sentiment.Score)
		m[fieldSentimentComparison] = formatFloat(s.Sentiment.Comparative)
		m[fieldSentimentConfidence] = formatFloat(s.Sentiment.Confidence)
	}
	if q := s.Quality; q != nil {
		m[fieldTextLength] = strconv.Itoa(q.TextLength)
		m[fieldWordCount] = strconv.Itoa(q.WordCount)
		m[fieldReadability] = formatFloat(q.Readability)
		m[fieldHasCode] = strconv.FormatBool(q.HasCode)
		m[fieldHasLinks] = strconv.FormatBool(q.HasLinks)
		m[fieldSpamScore] = formatFloat(q.SpamScore)
	}
	if len(s.Embedding) > 0 {
		m[domsig.FieldEmbedding] = vectorToBytes(s.Embedding)
	}
	if m[domsig.FieldDomain] == "" {
		m[domsig.FieldDomain] = "general"
	}
	return m
}

// ParseHashFields rebuilds a Signal from stored fields. Unknown or
// malformed values fall back to zero values.
func ParseHashFields(id string, m map[string]string) domsig.Signal {
	s := domsig.Signal{
		ID:            id,
		Platform:      domsig.Platform(m[domsig.FieldPlatform]),
		Title:         m[domsig.FieldTitle],
		Body:          m[domsig.FieldBody],
		Author:        m[domsig.FieldAuthor],
		URL:           m[domsig.FieldURL],
		Tags:          splitTags(m[domsig.FieldTags]),
		Score:         atoi(m[domsig.FieldScore]),
		NumComments:   atoi(m[domsig.FieldNumComments]),
		CreatedAt:     unix(m[domsig.FieldCreatedAt]),
		IndexedAt:     unix(m[domsig.FieldIndexedAt]),
		DomainContext: m[domsig.FieldDomain],
		QualityScore:  atof(m[domsig.FieldQualityScore]),
		IsProblem:     m[domsig.FieldProblem] == "true",
	}
	if v := m[fieldID]; v != "" {
		s.ID = v
	}
	if label := domsig.SentimentLabel(m[domsig.FieldSentiment]); label.IsValid() {
		s.Sentiment = &domsig.Sentiment{
			Score:       atof(m[domsig.FieldSentimentScore]),
			Comparative: atof(m[fieldSentimentComparison]),
			Label:       label,
			Confidence:  atof(m[fieldSentimentConfidence]),
		}
	}
	if _, ok := m[fieldWordCount]; ok {
		s.Quality = &domsig.QualityMetrics{
			TextLength:  atoi(m[fieldTextLength]),
			WordCount:   atoi(m[fieldWordCount]),
			Readability: atof(m[fieldReadability]),
			HasCode:     m[fieldHasCode] == "true",
			HasLinks:    m[fieldHasLinks] == "true",
			SpamScore:   atof(m[fieldSpamScore]),
		}
	}
	if v, ok := m[domsig.FieldEmbedding]; ok {
		s.Embedding = bytesToVector(v)
	}
	return s
}

// joinTags lowercases tags and strips the separator from values.
func joinTags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.ToLower(strings.ReplaceAll(t, domsig.TagSeparator, " ")))
		if t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, domsig.TagSeparator)
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, domsig.TagSeparator)
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func unix(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
