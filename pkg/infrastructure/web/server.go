// Package web serves the audit form, the results page and a small JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/domain/normalize"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
	"github.com/felixgeelhaar/specaudit/pkg/domain/workflow"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	maxUploadBytes = 10 << 20
	maxSessions    = 128
	drainTimeout   = 30 * time.Second
)

// IntakeFactory starts a new form session. onProceed runs when the session
// moves on to the next stage.
type IntakeFactory func(onProceed func()) (*application.IntakeService, error)

// ProceedFunc receives the submission that moved on to the next stage.
type ProceedFunc func(application.Submission)

// Server is the web form HTTP server.
type Server struct {
	addr      string
	newIntake IntakeFactory
	onProceed ProceedFunc
	events    http.Handler
	logger    *slog.Logger
	tmpl      *template.Template
	server    *http.Server
	tasks     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*application.IntakeService
	order    []string
}

// Option configures a Server.
type Option func(*Server)

// WithEvents mounts an SSE handler at /events.
func WithEvents(h http.Handler) Option {
	return func(s *Server) { s.events = h }
}

// WithProceedHandler sets the callback for proceeded submissions.
func WithProceedHandler(fn ProceedFunc) Option {
	return func(s *Server) { s.onProceed = fn }
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a web server listening on addr.
func NewServer(addr string, newIntake IntakeFactory, opts ...Option) (*Server, error) {
	if newIntake == nil {
		return nil, errors.New("intake factory is required")
	}
	funcMap := template.FuncMap{
		"optionClass": optionClass,
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		addr:      addr,
		newIntake: newIntake,
		logger:    slog.Default(),
		tmpl:      tmpl,
		sessions:  make(map[string]*application.IntakeService),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("POST /submit", s.handleSubmit)
	mux.HandleFunc("GET /results/{id}", s.handleResults)
	mux.HandleFunc("POST /results/{id}/proceed", s.handleProceed)
	mux.HandleFunc("POST /api/normalize", s.handleAPINormalize)
	mux.HandleFunc("GET /api/results/{id}", s.handleAPIResults)
	if s.events != nil {
		mux.Handle("GET /events", s.events)
	}
	return mux
}

// Go runs fn in the background. Run waits for it before returning.
func (s *Server) Go(fn func()) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		fn()
	}()
}

// Run serves until ctx is cancelled, then shuts down gracefully and waits
// for the tasks started with Go.
func (s *Server) Run(ctx context.Context) error {
	defer s.drain()

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server starting", "addr", s.addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) drain() {
	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		s.logger.Warn("background tasks still running after shutdown", "timeout", drainTimeout)
	}
}

// FormPage is the data of the upload form.
type FormPage struct {
	Title    string
	MCATName string
	FileName string
	Preview  int
	Error    string
	Live     bool
}

// ResultRow is one verdict with its expand link.
type ResultRow struct {
	report.ResultView
	ToggleURL string
}

// ResultsPage is the data of the results page.
type ResultsPage struct {
	Title      string
	Submission application.Submission
	Summary    report.Summary
	Rows       []ResultRow
	Unmatched  []string
	Proceeded  bool
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "form.html", FormPage{Title: "Specification Audit", Live: s.events != nil})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	page := FormPage{Title: "Specification Audit", Live: s.events != nil}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		page.Error = "Could not read the upload: " + err.Error()
		s.render(w, http.StatusBadRequest, "form.html", page)
		return
	}
	page.MCATName = r.FormValue("mcat_name")

	var sessionID string
	intake, err := s.newIntake(func() { s.proceeded(sessionID) })
	if err != nil {
		s.logger.Error("failed to start form session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	file, header, err := r.FormFile("spec_file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		page.Error = "Could not read the upload: " + err.Error()
		s.render(w, http.StatusBadRequest, "form.html", page)
		return
	default:
		data, readErr := io.ReadAll(file)
		_ = file.Close()
		if readErr != nil {
			page.Error = "Could not read the upload: " + readErr.Error()
			s.render(w, http.StatusBadRequest, "form.html", page)
			return
		}
		loaded, loadErr := intake.Load(r.Context(), application.BytesSource{FileName: header.Filename, Data: data})
		if loadErr != nil {
			page.Error = normalize.Message(loadErr)
			s.render(w, http.StatusUnprocessableEntity, "form.html", page)
			return
		}
		page.FileName = loaded.Name
		page.Preview = loaded.Preview
	}

	if _, err := intake.Run(r.Context(), page.MCATName); err != nil {
		page.Error = normalize.Message(err)
		status := http.StatusUnprocessableEntity
		if !normalize.IsValidation(err) {
			status = http.StatusBadGateway
		}
		s.render(w, status, "form.html", page)
		return
	}

	sessionID = intake.Status().Submission.ID
	s.store(sessionID, intake)
	http.Redirect(w, r, "/results/"+url.PathEscape(sessionID), http.StatusSeeOther)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	intake, ok := s.session(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	expanded := parseExpanded(r.URL.Query()["expanded"])
	view, err := intake.ViewExpanded(expanded)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	status := intake.Status()

	page := ResultsPage{
		Title:      "Stage 1: Specification Audit Results",
		Submission: *status.Submission,
		Summary:    view.Summary,
		Unmatched:  view.Unmatched,
		Proceeded:  status.State == workflow.StateProceeded,
	}
	for _, rv := range view.Results {
		page.Rows = append(page.Rows, ResultRow{
			ResultView: rv,
			ToggleURL:  resultsURL(id, expanded.Toggled(rv.Result.Specification)),
		})
	}
	s.render(w, http.StatusOK, "results.html", page)
}

func (s *Server) handleProceed(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	intake, ok := s.session(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := intake.Proceed(); err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "proceed.html", ProceedPage{Title: "Stage 2", Submission: intake.Status().Submission})
}

// ProceedPage is the data of the page shown after proceeding.
type ProceedPage struct {
	Title      string
	Submission *application.Submission
}

// NormalizeRequest is the body of POST /api/normalize.
type NormalizeRequest struct {
	MCATName string          `json:"mcat_name"`
	Document json.RawMessage `json:"document"`
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleAPINormalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body: " + err.Error()})
		return
	}

	var doc any
	if len(req.Document) > 0 && string(req.Document) != "null" {
		parsed, err := normalize.ParseDocument(req.Document)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: normalize.Message(err), Code: errorCode(err)})
			return
		}
		doc = parsed
	}

	input, err := normalize.Normalize(doc, req.MCATName)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: normalize.Message(err), Code: errorCode(err)})
		return
	}
	writeJSON(w, http.StatusOK, input)
}

func (s *Server) handleAPIResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	intake, ok := s.session(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "unknown submission"})
		return
	}
	view, err := intake.ViewExpanded(parseExpanded(r.URL.Query()["expanded"]))
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) store(id string, intake *application.IntakeService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = intake
	s.order = append(s.order, id)
	for len(s.order) > maxSessions {
		delete(s.sessions, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Server) session(id string) (*application.IntakeService, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intake, ok := s.sessions[id]
	return intake, ok
}

func (s *Server) proceeded(id string) {
	intake, ok := s.session(id)
	if !ok {
		return
	}
	sub := intake.Status().Submission
	if sub == nil {
		return
	}
	s.logger.Info("submission proceeded to stage 2", "submission", sub.ID, "mcat", sub.Input.MCATName)
	if s.onProceed != nil {
		s.onProceed(*sub)
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseExpanded reads one spec name per expanded query value. Names are
// kept verbatim since they may contain commas or padding.
func parseExpanded(values []string) report.ExpandSet {
	var names []string
	for _, n := range values {
		if n != "" {
			names = append(names, n)
		}
	}
	return report.NewExpandSet(names...)
}

func resultsURL(id string, expanded report.ExpandSet) string {
	u := "/results/" + url.PathEscape(id)
	if expanded.Len() == 0 {
		return u
	}
	return u + "?" + url.Values{"expanded": expanded.Names()}.Encode()
}

func errorCode(err error) string {
	var mismatch *normalize.NameMismatchError
	switch {
	case errors.As(err, &mismatch):
		return "name_mismatch"
	case errors.Is(err, normalize.ErrMissingName):
		return "missing_name"
	case errors.Is(err, normalize.ErrMissingFile):
		return "missing_file"
	case errors.Is(err, normalize.ErrInvalidJSON):
		return "invalid_json"
	case errors.Is(err, normalize.ErrNoSpecificationsFound):
		return "no_specifications"
	default:
		return ""
	}
}

func optionClass(state report.OptionState) string {
	switch state {
	case report.OptionProblematic:
		return "opt-problematic"
	case report.OptionAccepted:
		return "opt-accepted"
	default:
		return "opt-neutral"
	}
}
