package search

import (
	"context"
	"hash/fnv"
	"math"
	"slices"
	"strings"
	"sync"

	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
	"github.com/kailas-cloud/qdex/internal/domain/search/result"
)

const testDim = 384

// wordEmbedder hashes words into a fixed-size bag-of-words vector.
// Identical texts embed identically; disjoint texts are orthogonal-ish.
type wordEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return embedWords(text), nil
}

func embedWords(text string) []float32 {
	v := make([]float32, testDim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%testDim]++
	}
	return v
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type fakeDoc struct {
	q          domq.Question
	vec        []float32
	answeredTS int64
}

// cosineRepo is an in-memory Repository that scores with real cosine
// similarity and applies must-conditions as a pre-filter.
type cosineRepo struct {
	mu       sync.Mutex
	docs     map[string][]fakeDoc
	buckets  map[string][]result.Bucket
	subjects map[string][]result.Subject
	err      map[string]error
	knnCalls []knnCall
}

type knnCall struct {
	index   string
	k, ef   int
	filters filter.Expression
}

func newCosineRepo() *cosineRepo {
	return &cosineRepo{
		docs:     map[string][]fakeDoc{},
		buckets:  map[string][]result.Bucket{},
		subjects: map[string][]result.Subject{},
		err:      map[string]error{},
	}
}

func (r *cosineRepo) add(index string, qno int64, text, mp string, answeredTS int64) {
	q := domq.Reconstruct(domq.Snapshot{
		ID: text, Qno: qno, Question: text, Subject: text, MP: mp,
	})
	r.docs[index] = append(r.docs[index], fakeDoc{q: q, vec: embedWords(text), answeredTS: answeredTS})
}

func (r *cosineRepo) SearchKNN(
	_ context.Context, index string,
	vector []float32, filters filter.Expression, k, ef int,
) ([]result.Hit, error) {
	r.mu.Lock()
	r.knnCalls = append(r.knnCalls, knnCall{index: index, k: k, ef: ef, filters: filters})
	r.mu.Unlock()

	if err := r.err[index]; err != nil {
		return nil, err
	}

	var hits []result.Hit
	for _, d := range r.docs[index] {
		if !matches(d, filters) {
			continue
		}
		hits = append(hits, result.New(d.q, max(0, cosine(vector, d.vec)), index))
	}
	slices.SortFunc(hits, func(a, b result.Hit) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		}
		return 0
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func matches(d fakeDoc, f filter.Expression) bool {
	for _, c := range f.Must() {
		switch {
		case c.IsMatch() && c.Key() == domq.FieldMP:
			if d.q.MP() != c.Match() {
				return false
			}
		case c.IsRange() && c.Key() == domq.FieldAnsweredTS:
			if !c.Range().Contains(float64(d.answeredTS)) {
				return false
			}
		}
	}
	return true
}

func (r *cosineRepo) Suggest(_ context.Context, index, _ string, size int) ([]result.Subject, error) {
	if err := r.err[index]; err != nil {
		return nil, err
	}
	subs := r.subjects[index]
	return subs[:min(size, len(subs))], nil
}

func (r *cosineRepo) Recent(_ context.Context, index string, size int) ([]result.Subject, error) {
	if err := r.err[index]; err != nil {
		return nil, err
	}
	subs := r.subjects[index]
	return subs[:min(size, len(subs))], nil
}

func (r *cosineRepo) CountBy(_ context.Context, index, _ string, limit int) ([]result.Bucket, error) {
	if err := r.err[index]; err != nil {
		return nil, err
	}
	b := r.buckets[index]
	return b[:min(limit, len(b))], nil
}

// mockFinder implements RecordFinder for tests.
type mockFinder struct {
	findFn func(ctx context.Context, index string, filters filter.Expression, limit int) ([]domq.Question, error)
}

func (m *mockFinder) Find(ctx context.Context, index string, filters filter.Expression, limit int) ([]domq.Question, error) {
	if m.findFn != nil {
		return m.findFn(ctx, index, filters, limit)
	}
	return nil, nil
}
