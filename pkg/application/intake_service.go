package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/felixgeelhaar/specaudit/pkg/domain/audit"
	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/specaudit/pkg/domain/normalize"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
	"github.com/felixgeelhaar/specaudit/pkg/domain/workflow"
	"github.com/google/uuid"
)

// ErrStaleRead indicates a load was superseded by a newer one before it finished.
var ErrStaleRead = errors.New("file read superseded by a newer selection")

// ErrNoResults indicates an operation that needs audit results ran before an audit.
var ErrNoResults = errors.New("no audit results available")

// LoadedFile describes the document currently held by the form.
type LoadedFile struct {
	Name    string          `json:"name"`
	Preview int             `json:"preview"`
	Shape   normalize.Shape `json:"-"`
}

// Submission is one accepted form submission.
type Submission struct {
	ID    string             `json:"id"`
	Input catalog.AuditInput `json:"input"`
	File  string             `json:"file"`
}

// IntakeService owns the state of one audit form: the loaded document, the
// normalized submission, the verdicts and the expanded explanations.
type IntakeService struct {
	auditor   audit.Auditor
	logger    *slog.Logger
	onProceed func()

	slot readSlot

	mu         sync.Mutex
	machine    *workflow.FormMachine
	doc        any
	file       *LoadedFile
	submission *Submission
	results    []catalog.AuditResult
	expanded   report.ExpandSet
}

// IntakeOption configures an IntakeService.
type IntakeOption func(*IntakeService)

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) IntakeOption {
	return func(s *IntakeService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProceed sets the callback invoked when the user moves on to the next stage.
func WithProceed(fn func()) IntakeOption {
	return func(s *IntakeService) {
		s.onProceed = fn
	}
}

func NewIntakeService(auditor audit.Auditor, opts ...IntakeOption) (*IntakeService, error) {
	s := &IntakeService{
		auditor: auditor,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	machine, err := workflow.NewFormMachine(uuid.NewString())
	if err != nil {
		return nil, err
	}
	s.machine = machine
	return s, nil
}

// Load reads and parses a specifications file. A newer Load cancels this one;
// a superseded load returns ErrStaleRead and leaves the form untouched. Until
// a load completes, the previously loaded document stays in place.
func (s *IntakeService) Load(ctx context.Context, src Source) (*LoadedFile, error) {
	readCtx, gen := s.slot.begin(ctx)
	defer s.slot.finish(gen)

	data, readErr := src.Read(readCtx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.slot.isCurrent(gen) {
		s.logger.Debug("discarding superseded file read", "file", src.Name())
		return nil, ErrStaleRead
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Name(), readErr)
	}

	doc, err := normalize.ParseDocument(data)
	if err != nil {
		s.logger.Warn("uploaded file is not valid JSON", "file", src.Name(), "error", err)
		s.doc = nil
		s.file = nil
		if s.machine.Can(workflow.EventClear) {
			_ = s.machine.Fire(workflow.EventClear)
		}
		return nil, err
	}

	if err := s.machine.Fire(workflow.EventLoad); err != nil {
		return nil, err
	}
	s.doc = doc
	s.file = &LoadedFile{
		Name:    src.Name(),
		Preview: normalize.Preview(doc),
		Shape:   normalize.Detect(doc),
	}
	s.logger.Info("specifications file loaded",
		"file", s.file.Name,
		"shape", s.file.Shape.String(),
		"specs", s.file.Preview,
	)
	return s.file, nil
}

// Submit validates the form and normalizes the loaded document.
func (s *IntakeService) Submit(mcatName string) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	input, err := normalize.Normalize(s.doc, mcatName)
	if err != nil {
		s.logger.Info("submission rejected", "mcat", strings.TrimSpace(mcatName), "reason", err)
		return nil, err
	}
	if err := s.machine.Fire(workflow.EventSubmit); err != nil {
		return nil, err
	}

	s.submission = &Submission{
		ID:    uuid.NewString(),
		Input: *input,
		File:  s.file.Name,
	}
	s.logger.Info("submission accepted",
		"submission", s.submission.ID,
		"mcat", input.MCATName,
		"specs", len(input.Specifications),
	)
	return s.submission, nil
}

// Audit hands the current submission to the auditor and stores the verdicts.
// On failure the form returns to the loaded state so the user can retry.
func (s *IntakeService) Audit(ctx context.Context) ([]catalog.AuditResult, error) {
	s.mu.Lock()
	if s.machine.Current() != workflow.StateSubmitted || s.submission == nil {
		state := s.machine.Current()
		s.mu.Unlock()
		return nil, &workflow.TransitionError{Event: workflow.EventComplete, State: state}
	}
	sub := *s.submission
	s.mu.Unlock()

	results, err := s.auditor.Audit(ctx, sub.Input)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Error("audit failed", "submission", sub.ID, "auditor", s.auditor.ID(), "error", err)
		if s.machine.Can(workflow.EventFail) {
			_ = s.machine.Fire(workflow.EventFail)
		}
		return nil, fmt.Errorf("audit failed: %w", err)
	}
	if err := s.machine.Fire(workflow.EventComplete); err != nil {
		return nil, err
	}

	if results == nil {
		results = []catalog.AuditResult{}
	}
	s.results = results
	s.expanded = report.ExpandSet{}
	summary := report.Summarize(results)
	s.logger.Info("audit complete",
		"submission", sub.ID,
		"correct", summary.Correct,
		"incorrect", summary.Incorrect,
	)
	for _, name := range report.Build(results, sub.Input.Specifications, s.expanded).Unmatched {
		s.logger.Warn("verdict names a specification that was not submitted", "submission", sub.ID, "specification", name)
	}
	return results, nil
}

// Run submits the form and audits the submission in one step.
func (s *IntakeService) Run(ctx context.Context, mcatName string) (report.View, error) {
	if _, err := s.Submit(mcatName); err != nil {
		return report.View{}, err
	}
	if _, err := s.Audit(ctx); err != nil {
		return report.View{}, err
	}
	return s.View()
}

// View returns the derived display state of the current verdicts.
func (s *IntakeService) View() (report.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.results == nil || s.submission == nil {
		return report.View{}, ErrNoResults
	}
	return report.Build(s.results, s.submission.Input.Specifications, s.expanded), nil
}

// ViewExpanded is View with a caller-supplied expand set. The stored set is
// left alone, so stateless surfaces can carry expansion in their requests.
func (s *IntakeService) ViewExpanded(expanded report.ExpandSet) (report.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.results == nil || s.submission == nil {
		return report.View{}, ErrNoResults
	}
	return report.Build(s.results, s.submission.Input.Specifications, expanded), nil
}

// Toggle flips the expanded state of a specification's explanation.
func (s *IntakeService) Toggle(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded.Toggle(name)
}

// Proceed moves an audited form on to the next stage.
func (s *IntakeService) Proceed() error {
	s.mu.Lock()
	if err := s.machine.Fire(workflow.EventProceed); err != nil {
		s.mu.Unlock()
		return err
	}
	fn := s.onProceed
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Reset clears the form and cancels any in-flight read.
func (s *IntakeService) Reset() error {
	s.slot.invalidate()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = nil
	s.file = nil
	s.submission = nil
	s.results = nil
	s.expanded = report.ExpandSet{}
	return s.machine.Fire(workflow.EventReset)
}

// FormStatus is a snapshot of the form.
type FormStatus struct {
	State      string      `json:"state"`
	File       *LoadedFile `json:"file,omitempty"`
	Submission *Submission `json:"submission,omitempty"`
}

// Status returns a snapshot of the form.
func (s *IntakeService) Status() FormStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := FormStatus{State: s.machine.Current()}
	if s.file != nil {
		f := *s.file
		st.File = &f
	}
	if s.submission != nil {
		sub := *s.submission
		st.Submission = &sub
	}
	return st
}
