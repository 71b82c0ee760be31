package auditor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/specaudit/pkg/domain/audit"
	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
)

var sampleInput = catalog.AuditInput{
	MCATName: "Steel",
	Specifications: []catalog.UploadedSpec{
		{SpecName: "Grade", Options: []string{"304"}, InputType: catalog.RadioButton, Tier: catalog.TierPrimary},
	},
}

const sampleResults = `[{"specification": "Grade", "status": "incorrect", "explanation": "Missing 316", "problematic_options": ["304"]}]`

func TestDecodeResults(t *testing.T) {
	results, err := DecodeResults([]byte(sampleResults))
	if err != nil {
		t.Fatalf("DecodeResults: %v", err)
	}
	if len(results) != 1 || results[0].Status != catalog.StatusIncorrect || results[0].ProblematicOptions[0] != "304" {
		t.Errorf("unexpected results: %+v", results)
	}

	wrapped, err := DecodeResults([]byte(`{"results": ` + sampleResults + `}`))
	if err != nil || len(wrapped) != 1 {
		t.Fatalf("wrapped payload: %v, %v", wrapped, err)
	}

	nullable, err := DecodeResults([]byte(`[{"specification": "Grade", "status": "correct", "explanation": null, "problematic_options": null}]`))
	if err != nil || len(nullable) != 1 {
		t.Fatalf("nullable fields: %v, %v", nullable, err)
	}
}

func TestDecodeResults_SchemaViolations(t *testing.T) {
	payloads := []string{
		`[{"specification": "Grade", "status": "pending"}]`,
		`[{"status": "correct"}]`,
		`[{"specification": "Grade", "status": "correct", "problematic_options": [1]}]`,
		`{"specification": "Grade"}`,
	}
	for _, p := range payloads {
		_, err := DecodeResults([]byte(p))
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Errorf("%s: expected SchemaError, got %v", p, err)
		}
	}

	if _, err := DecodeResults([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestHTTPAuditor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("expected api key header, got %q", got)
		}
		var in catalog.AuditInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if in.MCATName != "Steel" || len(in.Specifications) != 1 {
			t.Errorf("unexpected input: %+v", in)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResults))
	}))
	defer srv.Close()

	a := NewHTTPAuditor(srv.URL, WithHeader("X-Api-Key", "secret"), WithHTTPClient(srv.Client()))
	results, err := a.Audit(context.Background(), sampleInput)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if len(results) != 1 || results[0].Specification != "Grade" {
		t.Errorf("unexpected results: %+v", results)
	}
	if a.ID() != "http" {
		t.Errorf("ID() = %q", a.ID())
	}
}

func TestResilientAuditor_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleResults))
	}))
	defer srv.Close()

	a := NewResilientAuditor(NewHTTPAuditor(srv.URL), ResilienceConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Timeout:      5 * time.Second,
	})
	results, err := a.Audit(context.Background(), sampleInput)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("unexpected results: %+v", results)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestResilientAuditor_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer srv.Close()

	a := NewResilientAuditor(NewHTTPAuditor(srv.URL), ResilienceConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Timeout:      5 * time.Second,
	})
	_, err := a.Audit(context.Background(), sampleInput)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 StatusError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestResilientAuditor_ReturnsPermanentErrorUnchanged(t *testing.T) {
	var calls atomic.Int32
	schemaErr := &SchemaError{Issues: []string{"0: status is required"}}
	inner := audit.Func(func(context.Context, catalog.AuditInput) ([]catalog.AuditResult, error) {
		calls.Add(1)
		return []catalog.AuditResult{{Specification: "partial"}}, schemaErr
	})

	a := NewResilientAuditor(inner, ResilienceConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Timeout:      5 * time.Second,
	})
	_, err := a.Audit(context.Background(), sampleInput)
	if !errors.Is(err, schemaErr) {
		t.Fatalf("expected the schema error back, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestFileAuditor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.json")
	if err := os.WriteFile(path, []byte(sampleResults), 0600); err != nil {
		t.Fatal(err)
	}

	a := NewFileAuditor(path)
	results, err := a.Audit(context.Background(), sampleInput)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if len(results) != 1 || results[0].Explanation != "Missing 316" {
		t.Errorf("unexpected results: %+v", results)
	}

	if _, err := NewFileAuditor(filepath.Join(t.TempDir(), "missing.json")).Audit(context.Background(), sampleInput); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStatusError_Temporary(t *testing.T) {
	tests := map[int]bool{500: true, 503: true, 429: true, 400: false, 404: false}
	for code, want := range tests {
		if got := (&StatusError{StatusCode: code}).Temporary(); got != want {
			t.Errorf("Temporary(%d) = %v, want %v", code, got, want)
		}
	}
}
