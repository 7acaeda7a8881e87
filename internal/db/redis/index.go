package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/qdex/internal/db"
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

// DropIndex removes an FT index by name. With deleteDocs the indexed hashes go too (DD).
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

// ListIndexes returns the names of all FT indexes (FT._LIST).
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	cmd := s.b().Arbitrary("FT._LIST").Build()
	names, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpListIndexes, Err: err}
	}
	return names, nil
}

// buildCreateArgs renders FT.CREATE arguments for a hash-backed index.
func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // validation message is already specific
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
	case db.IndexFieldNumeric, db.IndexFieldText:
		args = append(args, f.Type.String())
	case db.IndexFieldTag:
		args = append(args, f.Type.String())
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	case db.IndexFieldVector:
		return buildVectorFieldArgs(f)
	default:
		return nil, fmt.Errorf("field %s: unknown type %s", f.Name, f.Type)
	}

	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	if f.IndexMissing {
		args = append(args, "INDEXMISSING")
	}
	return args, nil
}

// buildVectorFieldArgs renders "name VECTOR HNSW <n> TYPE FLOAT32 DIM d
// DISTANCE_METRIC COSINE [M m] [EF_CONSTRUCTION ef]". Scores elsewhere assume cosine.
func buildVectorFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Vector == nil || f.Vector.Dim <= 0 {
		return nil, fmt.Errorf("vector field %s: DIM must be positive", f.Name)
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.Vector.Dim),
		"DISTANCE_METRIC", "COSINE",
	}
	if f.Vector.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(f.Vector.M))
	}
	if f.Vector.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.Vector.EFConstruct))
	}

	args := make([]string, 0, 4+len(attrs))
	args = append(args, f.Name, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
	return append(args, attrs...), nil
}
