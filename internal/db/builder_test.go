package db

import (
	"strings"
	"testing"
)

func sessionSchema() *IndexBuilder {
	return NewIndex("qdex:rajya_sabha_266:idx").
		Prefix("qdex:rajya_sabha_266:q:").
		Numeric("qno", Sortable()).
		Tag("mp", Separator("|"), CaseSensitive(), Sortable()).
		Text("subject").
		Text("answer", IndexMissing()).
		VectorHNSW("question_vector", 384, 32, 400)
}

func TestIndexBuilder_SessionSchema(t *testing.T) {
	idx, err := sessionSchema().Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "qdex:rajya_sabha_266:idx" || len(idx.Prefixes) != 1 {
		t.Errorf("unexpected head: %q %v", idx.Name, idx.Prefixes)
	}

	tests := []struct {
		field    string
		typ      IndexFieldType
		sortable bool
		missing  bool
	}{
		{"qno", IndexFieldNumeric, true, false},
		{"mp", IndexFieldTag, true, false},
		{"subject", IndexFieldText, false, false},
		{"answer", IndexFieldText, false, true},
		{"question_vector", IndexFieldVector, false, false},
	}
	for _, tt := range tests {
		f := idx.Field(tt.field)
		if f == nil {
			t.Errorf("%s: missing", tt.field)
			continue
		}
		if f.Type != tt.typ || f.Sortable != tt.sortable || f.IndexMissing != tt.missing {
			t.Errorf("%s: got %+v", tt.field, *f)
		}
	}

	if mp := idx.Field("mp"); mp.TagSeparator != "|" || !mp.TagCaseSensitive {
		t.Errorf("mp tag options = %+v", *mp)
	}
	if v := idx.Field("question_vector").Vector; v == nil || *v != (HNSW{Dim: 384, M: 32, EFConstruct: 400}) {
		t.Errorf("hnsw = %+v", v)
	}
	if idx.Field("ministry") != nil {
		t.Error("Field must return nil for an unknown name")
	}
}

func TestIndexBuilder_Prefixes(t *testing.T) {
	idx := NewIndex("qdex:all:idx").
		Prefix("qdex:ls_17:q:").
		Prefix("qdex:ls_18:q:", "qdex:rs_266:q:").
		Numeric("qno").
		MustBuild()
	if len(idx.Prefixes) != 3 || idx.Prefixes[2] != "qdex:rs_266:q:" {
		t.Errorf("prefixes = %v", idx.Prefixes)
	}
}

func TestIndexDefinition_Validate(t *testing.T) {
	vec := func(h *HNSW, mutate ...func(*IndexField)) IndexField {
		f := IndexField{Name: "question_vector", Type: IndexFieldVector, Vector: h}
		for _, m := range mutate {
			m(&f)
		}
		return f
	}
	qno := IndexField{Name: "qno", Type: IndexFieldNumeric}

	tests := []struct {
		name    string
		def     IndexDefinition
		wantErr string
	}{
		{name: "empty name", def: IndexDefinition{Fields: []IndexField{qno}}, wantErr: "invalid index name"},
		{name: "space in name", def: IndexDefinition{Name: "lok sabha", Fields: []IndexField{qno}}, wantErr: "invalid index name"},
		{name: "no fields", def: IndexDefinition{Name: "ls_18"}, wantErr: "at least one field"},
		{name: "unnamed field", def: IndexDefinition{Name: "ls_18", Fields: []IndexField{{Type: IndexFieldTag}}}, wantErr: "has no name"},
		{name: "duplicate", def: IndexDefinition{Name: "ls_18", Fields: []IndexField{qno, qno}}, wantErr: "duplicate field"},
		{name: "vector without hnsw", def: IndexDefinition{Name: "ls_18", Fields: []IndexField{vec(nil)}}, wantErr: "positive DIM"},
		{name: "vector zero dim", def: IndexDefinition{Name: "ls_18", Fields: []IndexField{vec(&HNSW{M: 16})}}, wantErr: "positive DIM"},
		{
			name:    "sortable vector",
			def:     IndexDefinition{Name: "ls_18", Fields: []IndexField{vec(&HNSW{Dim: 4}, func(f *IndexField) { f.Sortable = true })}},
			wantErr: "cannot be SORTABLE",
		},
		{
			name:    "missing-indexed vector",
			def:     IndexDefinition{Name: "ls_18", Fields: []IndexField{vec(&HNSW{Dim: 4}, func(f *IndexField) { f.IndexMissing = true })}},
			wantErr: "INDEXMISSING",
		},
		{name: "valid", def: IndexDefinition{Name: "qdex:ls_18:idx", Fields: []IndexField{qno, vec(&HNSW{Dim: 384})}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIndexBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for an invalid definition")
		}
	}()
	NewIndex("").MustBuild()
}

func TestIndexDefinition_String(t *testing.T) {
	got := sessionSchema().MustBuild().String()
	want := "FT.CREATE qdex:rajya_sabha_266:idx ON HASH PREFIX qdex:rajya_sabha_266:q: SCHEMA" +
		" qno NUMERIC SORTABLE mp TAG SORTABLE subject TEXT answer TEXT INDEXMISSING" +
		" question_vector VECTOR HNSW"
	if got != want {
		t.Errorf("String() =\n%q\nwant\n%q", got, want)
	}
}

func TestIndexFieldType_String(t *testing.T) {
	for typ, want := range map[IndexFieldType]string{
		IndexFieldNumeric:  "NUMERIC",
		IndexFieldTag:      "TAG",
		IndexFieldText:     "TEXT",
		IndexFieldVector:   "VECTOR",
		IndexFieldType(42): "IndexFieldType(42)",
	} {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(typ), got, want)
		}
	}
}
