package db

import (
	"fmt"
	"regexp"
)

// IndexFieldType enumerates the FT field types a session schema uses.
type IndexFieldType int

const (
	// IndexFieldNumeric is a NUMERIC field, used for qno and date timestamps.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is an exact-match TAG field.
	IndexFieldTag
	// IndexFieldText is a full-text TEXT field.
	IndexFieldText
	// IndexFieldVector is a FLOAT32 HNSW vector under cosine distance.
	IndexFieldVector
)

// String returns the FT.CREATE keyword of the type.
func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldNumeric:
		return "NUMERIC"
	case IndexFieldTag:
		return "TAG"
	case IndexFieldText:
		return "TEXT"
	case IndexFieldVector:
		return "VECTOR"
	default:
		return fmt.Sprintf("IndexFieldType(%d)", int(t))
	}
}

// HNSW holds the graph parameters of a vector field. Zero values leave the
// server defaults (M 16, EF_CONSTRUCTION 200).
type HNSW struct {
	Dim         int
	M           int
	EFConstruct int
}

// IndexField describes one field of a hash-backed FT index.
type IndexField struct {
	Name string
	Type IndexFieldType

	// Sortable adds SORTABLE so the field can back SORTBY and GROUPBY cheaply.
	Sortable bool
	// IndexMissing adds INDEXMISSING so ismissing(@field) queries work.
	IndexMissing bool

	TagSeparator     string
	TagCaseSensitive bool

	// Vector is set for IndexFieldVector only.
	Vector *HNSW
}

// IndexDefinition is an FT.CREATE ... ON HASH definition.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

var identifierRe = regexp.MustCompile(`^[a-zA-Z0-9_:-]+$`)

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if !identifierRe.MatchString(idx.Name) {
		return fmt.Errorf("invalid index name %q", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return fmt.Errorf("index %s: at least one field is required", idx.Name)
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("index %s: field %d has no name", idx.Name, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("index %s: duplicate field %q", idx.Name, f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Type != IndexFieldVector {
			continue
		}
		if f.Vector == nil || f.Vector.Dim <= 0 {
			return fmt.Errorf("vector field %s requires a positive DIM", f.Name)
		}
		if f.Sortable || f.IndexMissing {
			return fmt.Errorf("vector field %s cannot be SORTABLE or INDEXMISSING", f.Name)
		}
	}
	return nil
}
