package db

import "github.com/kailas-cloud/qdex/internal/domain/search/filter"

// VectorScoreField is the pseudo-field FT.SEARCH fills with the KNN distance.
const VectorScoreField = "__vector_score"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName   string
	Filters     filter.Expression
	Vector      []float32
	VectorField string
	K           int
	// EFRuntime overrides the HNSW query-time candidate list size; 0 keeps the index default.
	EFRuntime    int
	ReturnFields []string
}

// Query is the input for a filtered, optionally sorted, non-vector search.
type Query struct {
	IndexName    string
	Filters      filter.Expression
	SortBy       string
	SortDesc     bool
	Offset       int
	Limit        int
	ReturnFields []string
}

// GroupCountQuery groups matching documents by a field and counts each group.
type GroupCountQuery struct {
	IndexName string
	Filters   filter.Expression
	GroupBy   string
	Limit     int
}

// GroupCount is one bucket of a GroupCountQuery, ordered by Count descending.
type GroupCount struct {
	Value string
	Count int
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
