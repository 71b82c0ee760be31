package sse_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/sse"
	"github.com/felixgeelhaar/specaudit/pkg/application"
)

func TestBroadcaster_StreamsEvents(t *testing.T) {
	b := sse.NewBroadcaster()
	server := httptest.NewServer(b)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?types=reload.ok", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", resp.Header.Get("Content-Type"))
	}

	reader := bufio.NewReader(resp.Body)
	// Wait for the connection comment so the client is registered.
	if line, err := reader.ReadString('\n'); err != nil || !strings.HasPrefix(line, ": connected") {
		t.Fatalf("expected connected comment, got %q (%v)", line, err)
	}

	b.Publish(application.ReloadEvent{ID: "skip", Type: application.ReloadFailed})
	b.Publish(application.ReloadEvent{ID: "r-1", Type: application.ReloadOK, Path: "specs.json", Specs: 3})

	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	if lines[0] != "id: r-1" || lines[1] != "event: reload.ok" {
		t.Fatalf("unexpected frame: %v", lines)
	}
	if !strings.Contains(lines[2], `"specs":3`) {
		t.Errorf("expected specs count in data, got %q", lines[2])
	}
}

func TestBroadcaster_PublishWithoutClients(t *testing.T) {
	b := sse.NewBroadcaster()
	b.Publish(application.ReloadEvent{Type: application.ReloadOK})
	if b.Clients() != 0 {
		t.Fatalf("expected no clients, got %d", b.Clients())
	}
}
