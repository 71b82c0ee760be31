package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/specaudit/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/specaudit/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/infrastructure/web"
)

const specDoc = `{
  "category_name": "Stainless Steel Sheet",
  "finalized_specs": {
    "finalized_primary_specs": {"specs": [
      {"spec_name": "Grade", "options": ["304", "316", "Mild"], "input_type": "radio_button"}
    ]},
    "finalized_secondary_specs": {"specs": [
      {"spec_name": "Thickness", "options": ["1 mm", "2 mm"], "input_type": "dropdown"}
    ]}
  }
}`

const verdicts = `{"results": [
  {"specification": "Grade", "status": "incorrect", "explanation": "Mild steel is not stainless", "problematic_options": ["Mild"]},
  {"specification": "Thickness", "status": "correct"}
]}`

// TestWebFormHappyPath drives the audit form over HTTP against services built
// from a project directory: upload, results, expansion, proceed and the Stage 2
// webhook handoff.
func TestWebFormHappyPath(t *testing.T) {
	handoff := make(chan webhook.Payload, 1)
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhook.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			handoff <- p
		}
	}))
	defer receiver.Close()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Auditor.ResultsFile = "verdicts.json"
	cfg.Webhooks.Endpoints = []config.WebhookConfig{{Name: "stage2", URL: receiver.URL, Events: []string{webhook.EventProceeded}}}
	if err := config.Save(filepath.Join(root, config.FileName), cfg); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "verdicts.json"), []byte(verdicts), 0600); err != nil {
		t.Fatal(err)
	}

	services, err := wiring.BuildAppServices(root, "", nil)
	if err != nil {
		t.Fatalf("BuildAppServices failed: %v", err)
	}
	server, err := web.NewServer(":0", func(onProceed func()) (*application.IntakeService, error) {
		return services.NewIntake(application.WithProceed(onProceed))
	}, web.WithProceedHandler(func(sub application.Submission) {
		if err := services.NotifyProceeded(t.Context(), sub); err != nil {
			t.Errorf("handoff failed: %v", err)
		}
	}))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	client := &http.Client{
		Timeout:       10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	// 1. Upload
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("mcat_name", "  stainless steel sheet ")
	fw, _ := mw.CreateFormFile("spec_file", "sheet.json")
	_, _ = fw.Write([]byte(specDoc))
	_ = mw.Close()

	resp, err := client.Post(ts.URL+"/submit", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("submit: expected 303, got %d", resp.StatusCode)
	}
	resultsPath := resp.Header.Get("Location")

	// 2. Results, collapsed then expanded
	page := get(t, client, ts.URL+resultsPath)
	if !strings.Contains(page, "1 <small>Incorrect Specifications</small>") || strings.Contains(page, "Mild steel is not stainless") {
		t.Errorf("unexpected collapsed results page:\n%s", page)
	}
	page = get(t, client, ts.URL+resultsPath+"?expanded=Grade")
	if !strings.Contains(page, "Mild steel is not stainless") {
		t.Error("expected expanded explanation")
	}

	// 3. JSON view
	var view struct {
		Results []struct {
			Options []struct {
				Value string `json:"value"`
				State string `json:"state"`
			} `json:"options"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(get(t, client, ts.URL+"/api"+resultsPath)), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Results) != 2 || view.Results[0].Options[2].State != "problematic" {
		t.Errorf("expected Mild to be problematic: %+v", view.Results)
	}

	// 4. Proceed hands off to Stage 2
	resp, err = client.Post(ts.URL+resultsPath+"/proceed", "application/x-www-form-urlencoded", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("proceed: expected 200, got %d", resp.StatusCode)
	}

	select {
	case p := <-handoff:
		if p.EventType != webhook.EventProceeded {
			t.Errorf("unexpected handoff event %q", p.EventType)
		}
		raw, _ := json.Marshal(p.Data)
		if !strings.Contains(string(raw), `"mcat_name":"stainless steel sheet"`) {
			t.Errorf("handoff missing submitted MCAT name: %s", raw)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no Stage 2 handoff received")
	}

	// 5. A second proceed is rejected
	resp, err = client.Post(ts.URL+resultsPath+"/proceed", "application/x-www-form-urlencoded", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second proceed: expected 409, got %d", resp.StatusCode)
	}
}

func get(t *testing.T, client *http.Client, url string) string {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: %d %s", url, resp.StatusCode, data)
	}
	return string(data)
}
