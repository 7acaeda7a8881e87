package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/qdex/internal/domain"
	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/request"
	domsession "github.com/kailas-cloud/qdex/internal/domain/session"
	logpkg "github.com/kailas-cloud/qdex/internal/logger"
	"github.com/kailas-cloud/qdex/internal/metrics"
	healthuc "github.com/kailas-cloud/qdex/internal/usecase/health"
)

// Services are the use cases behind the HTTP API.
type Services struct {
	Sessions  SessionService
	Questions QuestionService
	Search    SearchService
	Lookup    LookupService
	Health    HealthService
}

// Options tune request handling.
type Options struct {
	// Secret gates mutating routes. Empty disables them.
	Secret string
	// LegacyChambers are accepted as deprecated per-chamber search selectors.
	LegacyChambers []string
	MaxBodyBytes   int64
}

// Server serves the qdex HTTP API.
type Server struct {
	sessions  SessionService
	questions QuestionService
	search    SearchService
	lookup    LookupService
	health    HealthService
	opts      Options
	logger    *zap.Logger

	readErrors  []errorHandler
	writeErrors []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, opts Options, logger *zap.Logger) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		sessions:    svc.Sessions,
		questions:   svc.Questions,
		search:      svc.Search,
		lookup:      svc.Lookup,
		health:      svc.Health,
		opts:        opts,
		logger:      logger,
		readErrors:  readErrorHandlers(),
		writeErrors: writeErrorHandlers(),
	}
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(recoverJSON)
	r.Use(metrics.Middleware("/metrics"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Content-Length", "X-Requested-With", SecretHeader},
		ExposedHeaders: []string{"X-Request-ID", "Deprecation"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Group(func(r chi.Router) {
		r.Use(SharedSecretMiddleware(s.opts.Secret, s.opts.MaxBodyBytes))
		r.Post("/index", s.CreateIndex)
		r.Delete("/index", s.DeleteIndex)
		r.Post("/question", s.CreateQuestion)
		r.Post("/answer", s.UpdateAnswer)
	})

	r.Get("/indices", s.ListIndices)
	r.Get("/indices/{index}/questions", s.ListQuestions)
	r.Get("/indices/{index}/questions/{id}", s.GetQuestion)

	r.Post("/search", s.Search)
	r.Post("/suggest", s.Suggest)
	r.Post("/recents", s.Recents)
	r.Post("/mp", s.Participants(domq.ParticipantMP))
	r.Post("/ministry", s.Participants(domq.ParticipantMinistry))

	r.Get("/questions/unanswered/{index}", s.Unanswered)
	r.Get("/questions/{user_type}/unanswered/{index}/{id}", s.UnansweredFor)
	r.Get("/questions/{user_type}/{index}/{id}", s.ByParticipant)

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// CreateIndex handles POST /index. An existing index is reported with
// status "error" and HTTP 200: it is an expected outcome, not a failure.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.sessions.Create(r.Context(), string(req.Chamber), string(req.Version))
	if errors.Is(err, domain.ErrIndexAlreadyExists) {
		writeJSON(w, http.StatusOK, Envelope{
			Status:  StatusError,
			Code:    CodeIndexAlreadyExists,
			Message: "index already exists",
			Data:    indexData{Index: sess.Name()},
		})
		return
	}
	if err != nil {
		handleDomainError(w, r, s.writeErrors, err)
		return
	}

	writeSuccess(w, http.StatusOK, CodeIndexCreated, "index created", indexData{Index: sess.Name()})
}

// DeleteIndex handles DELETE /index. Deleting a missing index succeeds.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, deleted, err := s.sessions.Delete(r.Context(), string(req.Chamber), string(req.Version))
	if err != nil {
		handleDomainError(w, r, s.writeErrors, err)
		return
	}

	if !deleted {
		writeSuccess(w, http.StatusOK, CodeIndexNotFound, "index did not exist", indexData{Index: sess.Name()})
		return
	}
	writeSuccess(w, http.StatusOK, CodeIndexDeleted, "index deleted", indexData{Index: sess.Name()})
}

// ListIndices handles GET /indices.
func (s *Server) ListIndices(w http.ResponseWriter, r *http.Request) {
	names, err := s.sessions.List(r.Context())
	if err != nil {
		handleDomainError(w, r, s.readErrors, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeSuccess(w, http.StatusOK, CodeOK, "", indicesData{Indices: names})
}

// CreateQuestion handles POST /question.
func (s *Server) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !s.decode(w, r, &req) {
		return
	}

	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	created, err := s.questions.Create(r.Context(), string(req.Chamber), string(req.Version), in)
	if err != nil {
		handleDomainError(w, r, s.writeErrors, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/indices/%s/questions/%s", created.Index, created.ID))
	writeSuccess(w, http.StatusCreated, CodeQuestionCreated, "question added", createdToDTO(created))
}

// UpdateAnswer handles POST /answer.
func (s *Server) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Answer == nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "answer is required")
		return
	}

	id := string(req.ID)
	if err := s.questions.UpdateAnswer(r.Context(), req.Index, id, *req.Answer, req.AnswerStyled); err != nil {
		handleDomainError(w, r, s.writeErrors, err)
		return
	}

	writeSuccess(w, http.StatusOK, CodeAnswerUpdated, "answer updated", answerData{Index: req.Index, ID: id})
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	buf, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var raw map[string]json.RawMessage
	var req searchRequest
	for _, dst := range []any{&raw, &req} {
		if err := json.Unmarshal(buf, dst); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	legacy, err := legacySelectors(raw, s.opts.LegacyChambers)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	sel := request.Selector{
		Index:   string(req.Index),
		Chamber: string(req.Chamber),
		Version: string(req.Version),
		Legacy:  legacy,
	}
	indices, deprecated, err := sel.Resolve(s.opts.LegacyChambers)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	if deprecated {
		w.Header().Set("Deprecation", "true")
		logpkg.FromContext(r.Context()).Warn("deprecated search selector",
			zap.Strings("indices", indices),
		)
	}

	filters, err := request.Criteria{
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		MP:       req.MP,
		Ministry: req.Ministry,
	}.Expression()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	sreq, err := request.New(req.Question, indices, req.Size, req.MinScore, filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	hits, err := s.search.Search(r.Context(), &sreq)
	if err != nil {
		handleDomainError(w, r, s.readErrors, err)
		return
	}

	writeSuccess(w, http.StatusOK, CodeOK, "", searchData{Hits: hitsToDTO(hits), Total: len(hits)})
}

// Suggest handles POST /suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !s.decode(w, r, &req) {
		return
	}

	indices, err := domsession.ParseNames(string(req.Index))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	sreq, err := request.NewSuggest(req.Query, indices, req.Size)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	texts, err := s.search.Suggest(r.Context(), &sreq)
	if err != nil {
		handleDomainError(w, r, s.readErrors, err)
		return
	}

	out := make([]suggestion, len(texts))
	for i, t := range texts {
		out[i] = suggestion{Text: t}
	}
	writeSuccess(w, http.StatusOK, CodeOK, "", out)
}

// Recents handles POST /recents.
func (s *Server) Recents(w http.ResponseWriter, r *http.Request) {
	var req recentsRequest
	if !s.decode(w, r, &req) {
		return
	}

	indices, err := domsession.ParseNames(string(req.Index))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	subjects, err := s.search.Recents(r.Context(), indices)
	if err != nil {
		handleDomainError(w, r, s.readErrors, err)
		return
	}

	out := make([]recentSubject, len(subjects))
	for i, subj := range subjects {
		out[i] = recentSubject{Subject: subj}
	}
	writeSuccess(w, http.StatusOK, CodeOK, "", out)
}

// Participants handles POST /mp and POST /ministry.
func (s *Server) Participants(kind domq.ParticipantType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req participantsRequest
		if !s.decode(w, r, &req) {
			return
		}

		indices, err := domsession.ParseNames(string(req.Index))
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}

		buckets, err := s.search.Participants(r.Context(), indices, kind)
		if err != nil {
			handleDomainError(w, r, s.readErrors, err)
			return
		}
		writeSuccess(w, http.StatusOK, CodeOK, "", bucketsToDTO(buckets))
	}
}

// Unanswered handles GET /questions/unanswered/{index}.
func (s *Server) Unanswered(w http.ResponseWriter, r *http.Request) {
	var index string
	if !bindPath(w, r, "index", &index) {
		return
	}

	qs, err := s.search.Unanswered(r.Context(), index)
	if err != nil {
		handleDomainError(w, r, s.readErrors, err)
		return
	}
	writeSuccess(w, http.StatusOK, CodeOK, "", publicListToDTO(qs))
}

// UnansweredFor handles GET /questions/{user_type}/unanswered/{index}/{id}.
func (s *Server) UnansweredFor(w http.ResponseWriter, r *http.Request) {
	var userType, index, id string
	if !bindPath(w, r, "user_type", &userType) || !bindPath(w, r, "index", &index) || !bindPath(w, r, "id", &id) {
		return
	}

	qs, err := s.search.UnansweredFor(r.Context(), index, domq.ParticipantType(userType), id)
	if err != nil {
		handleDomainError(w, r, s.readErrors, err)
		return
	}
	writeSuccess(w, http.StatusOK, CodeOK, "", publicListToDTO(qs))
}

// ByParticipant handles GET /questions/{user_type}/{index}/{id}.
func (s *Server) ByParticipant(w http.ResponseWriter, r *http.Request) {
	var userType, index, id string
	if !bindPath(w, r, "user_type", &userType) || !bindPath(w, r, "index", &index) || !bindPath(w, r, "id", &id) {
		return
	}

	qs, err := s.lookup.ByParticipant(r.Context(), index, domq.ParticipantType(userType), id)
	if err != nil {
		handleDomainError(w, r, s.readErrors, err)
		return
	}
	writeSuccess(w, http.StatusOK, CodeOK, "", recordsToDTO(qs))
}

// ListQuestions handles GET /indices/{index}/questions.
func (s *Server) ListQuestions(w http.ResponseWriter, r *http.Request) {
	var index string
	if !bindPath(w, r, "index", &index) {
		return
	}
	var offset, limit *int
	if !bindQuery(w, r, "offset", &offset) || !bindQuery(w, r, "limit", &limit) {
		return
	}

	page, err := s.lookup.List(r.Context(), index, derefInt(offset), derefInt(limit))
	if err != nil {
		handleDomainError(w, r, s.readErrors, err)
		return
	}
	writeSuccess(w, http.StatusOK, CodeOK, "", pageToDTO(page))
}

// GetQuestion handles GET /indices/{index}/questions/{id}.
func (s *Server) GetQuestion(w http.ResponseWriter, r *http.Request) {
	var index, id string
	if !bindPath(w, r, "index", &index) || !bindPath(w, r, "id", &id) {
		return
	}

	q, err := s.lookup.Get(r.Context(), index, id)
	if err != nil {
		handleDomainError(w, r, s.readErrors, err)
		return
	}
	writeSuccess(w, http.StatusOK, CodeOK, "", recordToDTO(&q))
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health. Only an unreachable search engine fails it.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return nil, false
	}
	return buf, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	buf, ok := s.readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(buf, dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func bindPath(w http.ResponseWriter, r *http.Request, name string, dst *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dst,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid format for parameter %s", name))
		return false
	}
	return true
}

func bindQuery(w http.ResponseWriter, r *http.Request, name string, dst **int) bool {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid format for parameter %s", name))
		return false
	}
	return true
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
