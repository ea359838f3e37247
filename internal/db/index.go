package db

import (
	"errors"
	"fmt"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance; scores are 1 - similarity.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
)

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is a tag field.
	IndexFieldTag
	// IndexFieldText is a text field.
	IndexFieldText
	// IndexFieldVector is a FLOAT32 HNSW vector field.
	IndexFieldVector
)

// IndexField describes a single field in an FT index schema.
// Indexes are always ON HASH; vector fields are always HNSW.
type IndexField struct {
	Name string
	Type IndexFieldType

	// TEXT: WEIGHT, 0 means server default (1.0)
	TextWeight float64

	// TAG
	TagSeparator     string
	TagCaseSensitive bool

	// NUMERIC, TAG and TEXT
	Sortable bool

	// VECTOR
	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int // max edges per node, 0 means server default (16)
	VectorEFConstruct int // build-time candidate list, 0 means server default (200)
}

// IndexDefinition is a complete FT.CREATE definition over hashes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		if err := idx.Fields[i].validate(); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		name := idx.Fields[i].Name
		if _, dup := seen[name]; dup {
			return errors.New("duplicate field name: " + name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (f *IndexField) validate() error {
	if f.Name == "" {
		return errors.New("field name is required")
	}
	switch f.Type {
	case IndexFieldText:
		if f.TextWeight < 0 {
			return errors.New("text weight must be non-negative: " + f.Name)
		}
	case IndexFieldTag:
		if len(f.TagSeparator) > 1 {
			return errors.New("tag separator must be a single character: " + f.Name)
		}
	case IndexFieldVector:
		if f.VectorDim <= 0 {
			return errors.New("vector field requires positive DIM")
		}
		if f.VectorM < 0 || f.VectorEFConstruct < 0 {
			return errors.New("HNSW parameters must be non-negative: " + f.Name)
		}
		if f.Sortable {
			return errors.New("vector field cannot be SORTABLE: " + f.Name)
		}
	case IndexFieldNumeric:
	default:
		return fmt.Errorf("unknown field type %d: %s", f.Type, f.Name)
	}
	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
