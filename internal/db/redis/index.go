package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/sigdex/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. deleteDocs also removes the indexed hashes (DD).
func (s *Store) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	args := []string{name}
	if deleteDocs {
		args = append(args, "DD")
	}
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// buildCreateArgs renders the FT.CREATE arguments after the command name.
func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("index %q: %w", idx.Name, err)
	}

	args := []string{idx.Name, "ON", "HASH"}
	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		fieldArgs, err := buildFieldArgs(&idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}
	args := []string{f.Name}

	switch f.Type {
	case db.IndexFieldNumeric:
		args = append(args, "NUMERIC")
	case db.IndexFieldText:
		args = append(args, "TEXT")
		if f.TextWeight > 0 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.TextWeight, 'f', -1, 64))
		}
	case db.IndexFieldTag:
		args = append(args, "TAG")
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	case db.IndexFieldVector:
		return buildVectorFieldArgs(f)
	default:
		return nil, fmt.Errorf("field %s: unknown type %d", f.Name, f.Type)
	}

	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args, nil
}

// buildVectorFieldArgs renders "name VECTOR HNSW <nargs> TYPE FLOAT32 DIM ...".
func buildVectorFieldArgs(f *db.IndexField) ([]string, error) {
	if f.VectorDim <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}
	distance := f.VectorDistance
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", string(distance),
	}
	if f.VectorM > 0 {
		attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
	}
	if f.VectorEFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
	}

	args := make([]string, 0, 4+len(attrs))
	args = append(args, f.Name, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
	return append(args, attrs...), nil
}
