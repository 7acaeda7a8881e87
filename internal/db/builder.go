package db

import "strings"

// FieldOption tweaks a non-vector field added through IndexBuilder.
type FieldOption func(*IndexField)

// Sortable marks the field SORTABLE.
func Sortable() FieldOption {
	return func(f *IndexField) { f.Sortable = true }
}

// IndexMissing marks the field INDEXMISSING.
func IndexMissing() FieldOption {
	return func(f *IndexField) { f.IndexMissing = true }
}

// Separator sets a TAG separator.
func Separator(sep string) FieldOption {
	return func(f *IndexField) { f.TagSeparator = sep }
}

// CaseSensitive keeps TAG values case-sensitive.
func CaseSensitive() FieldOption {
	return func(f *IndexField) { f.TagCaseSensitive = true }
}

// IndexBuilder is a fluent builder for FT index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an FT index definition.
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
func (b *IndexBuilder) Numeric(name string, opts ...FieldOption) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldNumeric}, opts)
}

// Tag adds a TAG field to the index.
func (b *IndexBuilder) Tag(name string, opts ...FieldOption) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldTag}, opts)
}

// Text adds a TEXT field to the index.
func (b *IndexBuilder) Text(name string, opts ...FieldOption) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldText}, opts)
}

func (b *IndexBuilder) field(f IndexField, opts []FieldOption) *IndexBuilder {
	for _, opt := range opts {
		opt(&f)
	}
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// VectorHNSW adds a FLOAT32 cosine vector field indexed with HNSW.
func (b *IndexBuilder) VectorHNSW(name string, dim, m, efConstruct int) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:   name,
		Type:   IndexFieldVector,
		Vector: &HNSW{Dim: dim, M: m, EFConstruct: efConstruct},
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

// Field returns the field with the given name, or nil.
func (idx *IndexDefinition) Field(name string) *IndexField {
	for i := range idx.Fields {
		if idx.Fields[i].Name == name {
			return &idx.Fields[i]
		}
	}
	return nil
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
		parts = append(parts, f.Name, f.Type.String())
		if f.Type == IndexFieldVector {
			parts = append(parts, "HNSW")
		}
		if f.Sortable {
			parts = append(parts, "SORTABLE")
		}
		if f.IndexMissing {
			parts = append(parts, "INDEXMISSING")
		}
	}
	return strings.Join(parts, " ")
}
