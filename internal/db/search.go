package db

import "github.com/kailas-cloud/sigdex/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for scored full-text search.
// Terms match any of TextFields; when TagField is set each term also
// matches as an exact tag, and either branch satisfies the query.
type TextQuery struct {
	IndexName    string
	Terms        string
	TextFields   []string
	TagField     string
	Filters      filter.Expression
	Offset       int
	Limit        int
	ReturnFields []string
}

// CountQuery counts documents matching the filters.
type CountQuery struct {
	IndexName string
	Filters   filter.Expression
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
