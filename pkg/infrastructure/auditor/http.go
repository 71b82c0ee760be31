// Package auditor provides Auditor implementations backed by an HTTP audit
// service or by verdict files.
package auditor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
)

const maxResponseBytes = 8 << 20

// StatusError is returned for non-2xx responses of the audit service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("audit service returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// HTTPAuditor posts the audit input as JSON and reads back the verdicts.
type HTTPAuditor struct {
	endpoint string
	client   *http.Client
	header   http.Header
}

// HTTPOption configures an HTTPAuditor.
type HTTPOption func(*HTTPAuditor)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(a *HTTPAuditor) {
		a.client = c
	}
}

// WithHeader adds a request header, such as an API key.
func WithHeader(key, value string) HTTPOption {
	return func(a *HTTPAuditor) {
		a.header.Add(key, value)
	}
}

func NewHTTPAuditor(endpoint string, opts ...HTTPOption) *HTTPAuditor {
	a := &HTTPAuditor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
		header:   make(http.Header),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *HTTPAuditor) ID() string {
	return "http"
}

func (a *HTTPAuditor) Audit(ctx context.Context, input catalog.AuditInput) ([]catalog.AuditResult, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range a.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audit request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read audit response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	return DecodeResults(data)
}

// isPermanent reports errors that a retry cannot fix.
func isPermanent(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.Temporary()
	}
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr) || errors.Is(err, context.Canceled)
}
