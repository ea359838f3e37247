package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/sigdex/internal/db"
)

const vectorScoreField = "__vector_score"

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
// Entries come back nearest first with Score = 1 - cosine distance.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("index name is required")
	case q.VectorField == "":
		return nil, errors.New("vector field is required")
	case len(q.Vector) == 0:
		return nil, errors.New("vector is required")
	case q.K <= 0:
		return nil, errors.New("k must be positive")
	}

	raw, err := s.ftSearch(ctx, buildKNNArgs(q))
	if err != nil {
		return nil, err
	}
	res, err := parseSearchReply(raw, false)
	if err != nil {
		return nil, err
	}
	for i := range res.Entries {
		e := &res.Entries[i]
		dist, ok := e.Fields[vectorScoreField]
		if !ok {
			continue
		}
		delete(e.Fields, vectorScoreField)
		if d, err := strconv.ParseFloat(dist, 64); err == nil {
			e.Score = max(0, 1-d)
		}
	}
	return res, nil
}

// SearchText runs a scored full-text search via FT.SEARCH WITHSCORES.
// A query without searchable terms returns an empty result without a round-trip.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("index name is required")
	case len(q.TextFields) == 0:
		return nil, errors.New("at least one text field is required")
	case q.Limit <= 0:
		return nil, errors.New("limit must be positive")
	case q.Offset < 0:
		return nil, errors.New("offset must be non-negative")
	}

	query := buildTextQuery(q)
	if query == "" {
		return &db.SearchResult{}, nil
	}

	args := []string{q.IndexName, query}
	if n := len(q.ReturnFields); n > 0 {
		args = append(args, "RETURN", strconv.Itoa(n))
		args = append(args, q.ReturnFields...)
	}
	args = append(args,
		"WITHSCORES",
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	raw, err := s.ftSearch(ctx, args)
	if err != nil {
		return nil, err
	}
	return parseSearchReply(raw, true)
}

// SearchCount returns the number of documents matching the filters.
func (s *Store) SearchCount(ctx context.Context, q *db.CountQuery) (int, error) {
	query := buildFilter(q.Filters)
	if query == "" {
		query = "*"
	}
	raw, err := s.ftSearch(ctx, []string{q.IndexName, query, "LIMIT", "0", "0", "DIALECT", "2"})
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

func (s *Store) ftSearch(ctx context.Context, args []string) ([]rueidis.RedisMessage, error) {
	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return raw, nil
}

// parseSearchReply decodes [total, key, (score,) fields, key, (score,) fields, ...].
// Entries that fail to decode are skipped.
func parseSearchReply(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	stride := 2
	if withScores {
		stride = 3
	}
	res := &db.SearchResult{
		Total:   int(total),
		Entries: make([]db.SearchEntry, 0, (len(raw)-1)/stride),
	}
	for i := 1; i+stride <= len(raw); i += stride {
		if e, ok := decodeEntry(raw[i:i+stride], withScores); ok {
			res.Entries = append(res.Entries, e)
		}
	}
	return res, nil
}

func decodeEntry(msg []rueidis.RedisMessage, withScores bool) (db.SearchEntry, bool) {
	key, err := msg[0].ToString()
	if err != nil {
		return db.SearchEntry{}, false
	}
	e := db.SearchEntry{Key: key}
	if withScores {
		s, err := msg[1].ToString()
		if err != nil {
			return db.SearchEntry{}, false
		}
		if e.Score, err = strconv.ParseFloat(s, 64); err != nil {
			return db.SearchEntry{}, false
		}
	}
	pairs, err := msg[len(msg)-1].ToArray()
	if err != nil {
		return db.SearchEntry{}, false
	}
	e.Fields = make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, nerr := pairs[j].ToString()
		value, verr := pairs[j+1].ToString()
		if nerr == nil && verr == nil {
			e.Fields[name] = value
		}
	}
	return e, true
}
