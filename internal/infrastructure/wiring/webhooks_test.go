package wiring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/specaudit/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
)

func TestLoadNotifierSkipsDisabled(t *testing.T) {
	cfg := config.WebhooksConfig{Endpoints: []config.WebhookConfig{{Name: "off", URL: "http://x", Disabled: true}}}
	if n := LoadNotifier(t.TempDir(), cfg, nil); n.Enabled() {
		t.Fatal("expected no notifier when every endpoint is disabled")
	}
}

func TestNotifyProceeded(t *testing.T) {
	got := make(chan webhook.Payload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhook.Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		got <- p
	}))
	defer server.Close()

	dir := t.TempDir()
	content := "webhooks:\n  endpoints:\n    - name: stage2\n      url: " + server.URL + "\n      events: [submission.proceeded]\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	services, err := BuildAppServices(dir, "", nil)
	if err != nil {
		t.Fatalf("build services: %v", err)
	}

	sub := application.Submission{ID: "sub-1", Input: catalog.AuditInput{MCATName: "Steel"}, File: "specs.json"}
	if err := services.NotifyAudited(context.Background(), sub, report.View{}); err != nil {
		t.Fatalf("audited: %v", err)
	}
	if err := services.NotifyProceeded(context.Background(), sub); err != nil {
		t.Fatalf("proceeded: %v", err)
	}

	p := <-got
	if p.EventType != webhook.EventProceeded {
		t.Fatalf("expected only the proceeded event, got %s", p.EventType)
	}
	data, _ := p.Data.(map[string]any)
	submission, _ := data["submission"].(map[string]any)
	if submission["id"] != "sub-1" {
		t.Errorf("unexpected payload data: %v", p.Data)
	}
	select {
	case extra := <-got:
		t.Errorf("unexpected extra delivery: %+v", extra)
	default:
	}
}

func TestLoadNotifierDeadLetterPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	root := t.TempDir()
	n := LoadNotifier(root, config.WebhooksConfig{
		DeadLetterFile: "dead.jsonl",
		Endpoints:      []config.WebhookConfig{{Name: "broken", URL: server.URL, RetryDelayMs: 1}},
	}, nil)
	if err := n.Notify(context.Background(), webhook.EventAudited, nil); err == nil {
		t.Fatal("expected delivery failure")
	}
	if _, err := os.Stat(filepath.Join(root, "dead.jsonl")); err != nil {
		t.Fatalf("expected dead letter file under root: %v", err)
	}
}
