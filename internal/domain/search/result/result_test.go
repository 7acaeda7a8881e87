package result

import (
	"testing"

	"github.com/kailas-cloud/qdex/internal/domain/question"
)

func TestNew(t *testing.T) {
	q := question.Reconstruct(question.Snapshot{ID: "q-1", Qno: 4, Subject: "Rail"})

	h := New(q, 0.95, "lok_sabha_17")

	if got := h.Question(); got.ID() != "q-1" || got.Qno() != 4 {
		t.Errorf("Question() = %+v", got)
	}
	if h.Score() != 0.95 {
		t.Errorf("Score() = %f", h.Score())
	}
	if h.Index() != "lok_sabha_17" {
		t.Errorf("Index() = %q", h.Index())
	}
}
