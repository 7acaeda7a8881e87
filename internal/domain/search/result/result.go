package result

import "github.com/kailas-cloud/qdex/internal/domain/question"

// Hit is a single semantic search match.
type Hit struct {
	record question.Question
	score  float64
	index  string
}

// New creates a search hit.
func New(record question.Question, score float64, index string) Hit {
	return Hit{record: record, score: score, index: index}
}

// Question returns the matched record.
func (h *Hit) Question() question.Question { return h.record }

// Score returns the cosine similarity in [0,1].
func (h *Hit) Score() float64 { return h.score }

// Index returns the session index the hit came from.
func (h *Hit) Index() string { return h.index }

// Bucket is one distinct value of an aggregated field with its record count.
type Bucket struct {
	Value string
	Count int
}

// Subject is a subject line with the answer timestamp suggestions and recents are ordered by.
type Subject struct {
	Text       string
	AnsweredTS int64
}
