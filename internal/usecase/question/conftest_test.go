package question

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	domq "github.com/kailas-cloud/qdex/internal/domain/question"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	nextQnoFn      func(ctx context.Context, index string) (int64, error)
	insertFn       func(ctx context.Context, index string, q domq.Question) error
	updateAnswerFn func(ctx context.Context, index, id string, u domq.AnswerUpdate) error
}

func (m *mockRepo) NextQno(ctx context.Context, index string) (int64, error) {
	if m.nextQnoFn != nil {
		return m.nextQnoFn(ctx, index)
	}
	return 1, nil
}

func (m *mockRepo) Insert(ctx context.Context, index string, q domq.Question) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, index, q)
	}
	return nil
}

func (m *mockRepo) UpdateAnswer(ctx context.Context, index, id string, u domq.AnswerUpdate) error {
	if m.updateAnswerFn != nil {
		return m.updateAnswerFn(ctx, index, id, u)
	}
	return nil
}

type mockIndices struct {
	existsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockIndices) Exists(ctx context.Context, name string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return true, nil
}

type mockEmbedder struct {
	calls int
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return make([]float32, 384), nil
}

var testNow = time.Date(2024, 2, 1, 18, 45, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *mockRepo, *mockIndices, *mockEmbedder) {
	t.Helper()
	repo := &mockRepo{}
	idx := &mockIndices{}
	emb := &mockEmbedder{}
	svc := New(repo, idx, emb, zap.NewNop(),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string { return "fixed-id" }),
	)
	return svc, repo, idx, emb
}

func validInput() domq.Input {
	return domq.Input{
		Question:   "Will the ministry expand rural broadband?",
		Subject:    "Rural broadband",
		MP:         "Shri A. Kumar",
		MPID:       "mp-42",
		Ministry:   "Communications",
		MinistryID: "min-7",
	}
}
