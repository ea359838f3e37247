package db

import (
	"strconv"
	"strings"
)

// IndexBuilder is a fluent builder for FT index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an FT index definition over hashes.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{
		def: IndexDefinition{Name: name},
	}
}

// Prefix adds key prefixes to the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Numeric adds a NUMERIC field to the index.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name: name,
		Type: IndexFieldNumeric,
	})
	return b
}

// SortableNumeric adds a NUMERIC SORTABLE field.
func (b *IndexBuilder) SortableNumeric(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:     name,
		Type:     IndexFieldNumeric,
		Sortable: true,
	})
	return b
}

// Tag adds a TAG field to the index.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name: name,
		Type: IndexFieldTag,
	})
	return b
}

// TagWithOpts adds a TAG field with custom separator and case sensitivity.
func (b *IndexBuilder) TagWithOpts(name, separator string, caseSensitive bool) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:             name,
		Type:             IndexFieldTag,
		TagSeparator:     separator,
		TagCaseSensitive: caseSensitive,
	})
	return b
}

// Text adds a TEXT field to the index.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name: name,
		Type: IndexFieldText,
	})
	return b
}

// WeightedText adds a TEXT field whose matches count weight times as much.
func (b *IndexBuilder) WeightedText(name string, weight float64) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:       name,
		Type:       IndexFieldText,
		TextWeight: weight,
	})
	return b
}

// VectorHNSW adds a VECTOR field with HNSW algorithm.
func (b *IndexBuilder) VectorHNSW(name string, dim int, distance DistanceMetric, m, efConstruct int) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:              name,
		Type:              IndexFieldVector,
		VectorDim:         dim,
		VectorDistance:    distance,
		VectorM:           m,
		VectorEFConstruct: efConstruct,
	})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// VectorDim returns the dimension of the first vector field, or 0.
func (idx *IndexDefinition) VectorDim() int {
	for i := range idx.Fields {
		if idx.Fields[i].Type == IndexFieldVector {
			return idx.Fields[i].VectorDim
		}
	}
	return 0
}

// String returns a debug representation resembling the FT.CREATE command.
func (idx *IndexDefinition) String() string {
	parts := []string{"FT.CREATE", idx.Name, "ON", "HASH"}
	if len(idx.Prefixes) > 0 {
		parts = append(parts, "PREFIX")
		parts = append(parts, idx.Prefixes...)
	}
	parts = append(parts, "SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		parts = append(parts, f.Name)
		switch f.Type {
		case IndexFieldTag:
			parts = append(parts, "TAG")
		case IndexFieldNumeric:
			parts = append(parts, "NUMERIC")
		case IndexFieldText:
			parts = append(parts, "TEXT")
			if f.TextWeight > 0 {
				parts = append(parts, "WEIGHT", strconv.FormatFloat(f.TextWeight, 'g', -1, 64))
			}
		case IndexFieldVector:
			parts = append(parts, "VECTOR", "HNSW", "DIM", strconv.Itoa(f.VectorDim))
		}
		if f.Sortable {
			parts = append(parts, "SORTABLE")
		}
	}
	return strings.Join(parts, " ")
}
