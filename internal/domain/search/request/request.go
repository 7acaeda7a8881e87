package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search text length.
	MaxQueryLength     = 4096
	DefaultSize        = 10
	MaxSize            = 100
	DefaultSuggestSize = 5
	MaxSuggestSize     = 50
)

// Request is a validated semantic search over one or more session indices.
type Request struct {
	question string
	indices  []string
	size     int
	minScore float64
	filters  filter.Expression
}

// New validates and normalizes search parameters. size 0 means DefaultSize.
func New(question string, indices []string, size int, minScore float64, filters filter.Expression) (Request, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Request{}, fmt.Errorf("question is required")
	}
	if len(question) > MaxQueryLength {
		return Request{}, fmt.Errorf("question too long (max %d chars)", MaxQueryLength)
	}
	if len(indices) == 0 {
		return Request{}, fmt.Errorf("at least one index is required")
	}
	if size == 0 {
		size = DefaultSize
	}
	if size < 1 || size > MaxSize {
		return Request{}, fmt.Errorf("size must be between 1 and %d", MaxSize)
	}
	if minScore < 0 || minScore > 1 {
		return Request{}, fmt.Errorf("min_score must be between 0 and 1")
	}

	return Request{
		question: question,
		indices:  indices,
		size:     size,
		minScore: minScore,
		filters:  filters,
	}, nil
}

// Question returns the text to embed.
func (r *Request) Question() string { return r.question }

// Indices returns the session indices to search.
func (r *Request) Indices() []string { return r.indices }

// Size returns the maximum number of hits.
func (r *Request) Size() int { return r.size }

// MinScore returns the minimum similarity threshold.
func (r *Request) MinScore() float64 { return r.minScore }

// Filters returns the pre-filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// Suggest is a validated subject autocomplete request.
type Suggest struct {
	prefix  string
	indices []string
	size    int
}

// NewSuggest validates an autocomplete request. size 0 means DefaultSuggestSize.
func NewSuggest(prefix string, indices []string, size int) (Suggest, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return Suggest{}, fmt.Errorf("query is required")
	}
	if len(prefix) > filter.MaxPrefixLength {
		return Suggest{}, fmt.Errorf("query too long (max %d chars)", filter.MaxPrefixLength)
	}
	if len(indices) == 0 {
		return Suggest{}, fmt.Errorf("at least one index is required")
	}
	if size == 0 {
		size = DefaultSuggestSize
	}
	if size < 1 || size > MaxSuggestSize {
		return Suggest{}, fmt.Errorf("size must be between 1 and %d", MaxSuggestSize)
	}
	return Suggest{prefix: prefix, indices: indices, size: size}, nil
}

// Prefix returns the typed text.
func (s *Suggest) Prefix() string { return s.prefix }

// Indices returns the session indices to search.
func (s *Suggest) Indices() []string { return s.indices }

// Size returns the maximum number of suggestions.
func (s *Suggest) Size() int { return s.size }
