package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/request"
	"github.com/kailas-cloud/qdex/internal/domain/search/result"
	domsession "github.com/kailas-cloud/qdex/internal/domain/session"
	healthuc "github.com/kailas-cloud/qdex/internal/usecase/health"
	lookupuc "github.com/kailas-cloud/qdex/internal/usecase/lookup"
	questionuc "github.com/kailas-cloud/qdex/internal/usecase/question"
)

const testSecret = "s3cret"

type mockSessions struct {
	createFn func(ctx context.Context, chamber, version string) (domsession.Session, error)
	deleteFn func(ctx context.Context, chamber, version string) (domsession.Session, bool, error)
	listFn   func(ctx context.Context) ([]string, error)
}

func (m *mockSessions) Create(ctx context.Context, chamber, version string) (domsession.Session, error) {
	return m.createFn(ctx, chamber, version)
}

func (m *mockSessions) Delete(ctx context.Context, chamber, version string) (domsession.Session, bool, error) {
	return m.deleteFn(ctx, chamber, version)
}

func (m *mockSessions) List(ctx context.Context) ([]string, error) {
	return m.listFn(ctx)
}

type mockQuestions struct {
	createFn       func(ctx context.Context, chamber, version string, in domq.Input) (questionuc.Created, error)
	updateAnswerFn func(ctx context.Context, index, id, answer string, styled *string) error
	calls          int
}

func (m *mockQuestions) Create(
	ctx context.Context, chamber, version string, in domq.Input,
) (questionuc.Created, error) {
	m.calls++
	return m.createFn(ctx, chamber, version, in)
}

func (m *mockQuestions) UpdateAnswer(ctx context.Context, index, id, answer string, styled *string) error {
	m.calls++
	return m.updateAnswerFn(ctx, index, id, answer, styled)
}

type mockSearch struct {
	searchFn        func(ctx context.Context, req *request.Request) ([]result.Hit, error)
	suggestFn       func(ctx context.Context, req *request.Suggest) ([]string, error)
	recentsFn       func(ctx context.Context, indices []string) ([]string, error)
	participantsFn  func(ctx context.Context, indices []string, kind domq.ParticipantType) ([]result.Bucket, error)
	unansweredFn    func(ctx context.Context, index string) ([]domq.Question, error)
	unansweredForFn func(ctx context.Context, index string, kind domq.ParticipantType, id string) ([]domq.Question, error)
	calls           int
}

func (m *mockSearch) Search(ctx context.Context, req *request.Request) ([]result.Hit, error) {
	m.calls++
	return m.searchFn(ctx, req)
}

func (m *mockSearch) Suggest(ctx context.Context, req *request.Suggest) ([]string, error) {
	m.calls++
	return m.suggestFn(ctx, req)
}

func (m *mockSearch) Recents(ctx context.Context, indices []string) ([]string, error) {
	m.calls++
	return m.recentsFn(ctx, indices)
}

func (m *mockSearch) Participants(
	ctx context.Context, indices []string, kind domq.ParticipantType,
) ([]result.Bucket, error) {
	m.calls++
	return m.participantsFn(ctx, indices, kind)
}

func (m *mockSearch) Unanswered(ctx context.Context, index string) ([]domq.Question, error) {
	m.calls++
	return m.unansweredFn(ctx, index)
}

func (m *mockSearch) UnansweredFor(
	ctx context.Context, index string, kind domq.ParticipantType, id string,
) ([]domq.Question, error) {
	m.calls++
	return m.unansweredForFn(ctx, index, kind, id)
}

type mockLookup struct {
	getFn           func(ctx context.Context, index, id string) (domq.Question, error)
	listFn          func(ctx context.Context, index string, offset, limit int) (lookupuc.Page, error)
	byParticipantFn func(ctx context.Context, index string, kind domq.ParticipantType, id string) ([]domq.Question, error)
}

func (m *mockLookup) Get(ctx context.Context, index, id string) (domq.Question, error) {
	return m.getFn(ctx, index, id)
}

func (m *mockLookup) List(ctx context.Context, index string, offset, limit int) (lookupuc.Page, error) {
	return m.listFn(ctx, index, offset, limit)
}

func (m *mockLookup) ByParticipant(
	ctx context.Context, index string, kind domq.ParticipantType, id string,
) ([]domq.Question, error) {
	return m.byParticipantFn(ctx, index, kind, id)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type testDeps struct {
	sessions  *mockSessions
	questions *mockQuestions
	search    *mockSearch
	lookup    *mockLookup
	health    *mockHealth
}

func newTestDeps() *testDeps {
	return &testDeps{
		sessions:  &mockSessions{},
		questions: &mockQuestions{},
		search:    &mockSearch{},
		lookup:    &mockLookup{},
		health:    &mockHealth{},
	}
}

func (d *testDeps) handler(opts Options) http.Handler {
	srv := NewServer(Services{
		Sessions:  d.sessions,
		Questions: d.questions,
		Search:    d.search,
		Lookup:    d.lookup,
		Health:    d.health,
	}, opts, zap.NewNop())
	return srv.Routes()
}

func defaultOptions() Options {
	return Options{Secret: testSecret, LegacyChambers: []string{"lok_sabha", "rajya_sabha"}}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testSecret}
}

type testEnvelope struct {
	Status  string          `json:"status"`
	Code    Code            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rr.Body.String())
	}
	return env
}

func mustSession(t *testing.T, chamber, version string) domsession.Session {
	t.Helper()
	s, err := domsession.New(chamber, version)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s
}
