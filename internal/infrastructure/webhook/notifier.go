// Package webhook delivers submission events to outgoing HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Event types.
const (
	EventAudited   = "submission.audited"
	EventProceeded = "submission.proceeded"
)

// SignatureHeader carries the HMAC-SHA256 of the body when an endpoint has a secret.
const SignatureHeader = "X-Specaudit-Signature"

// Endpoint is one webhook receiver.
type Endpoint struct {
	Name       string
	URL        string
	Secret     string
	Events     []string
	MaxRetries int
	RetryDelay time.Duration
}

func (ep Endpoint) accepts(eventType string) bool {
	return len(ep.Events) == 0 || slices.Contains(ep.Events, eventType)
}

// Payload is the JSON body sent to endpoints.
type Payload struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Notifier sends payloads to every endpoint subscribed to the event type.
type Notifier struct {
	endpoints  []Endpoint
	client     *http.Client
	deadLetter *DeadLetterStore
	logger     *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithDeadLetter records deliveries that exhausted their retries.
func WithDeadLetter(store *DeadLetterStore) Option {
	return func(n *Notifier) { n.deadLetter = store }
}

func WithHTTPClient(client *http.Client) Option {
	return func(n *Notifier) { n.client = client }
}

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func NewNotifier(endpoints []Endpoint, opts ...Option) *Notifier {
	n := &Notifier{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled reports whether any endpoint is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && len(n.endpoints) > 0
}

// Notify delivers data as eventType to all matching endpoints concurrently and
// waits for them. Failed deliveries are dead-lettered and joined into the
// returned error.
func (n *Notifier) Notify(ctx context.Context, eventType string, data any) error {
	if !n.Enabled() {
		return nil
	}
	payload := Payload{
		ID:        uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	errs := make([]error, len(n.endpoints))
	var g errgroup.Group
	for i, ep := range n.endpoints {
		if !ep.accepts(eventType) {
			continue
		}
		g.Go(func() error {
			errs[i] = n.deliver(ctx, ep, eventType, body)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (n *Notifier) deliver(ctx context.Context, ep Endpoint, eventType string, body []byte) error {
	attempts := ep.MaxRetries + 1
	delay := ep.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   attempts,
		InitialDelay:  delay,
		BackoffPolicy: retry.BackoffExponential,
		IsRetryable:   retryable,
	})
	tries := 0
	_, err := r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		tries++
		return struct{}{}, n.send(ctx, ep, body)
	})
	if err == nil {
		n.logger.Debug("webhook delivered", "webhook", ep.Name, "event", eventType)
		return nil
	}

	n.logger.Warn("webhook delivery failed", "webhook", ep.Name, "event", eventType, "error", err)
	if n.deadLetter != nil {
		dl := DeadLetter{
			Timestamp:   time.Now().UTC(),
			WebhookName: ep.Name,
			URL:         ep.URL,
			EventType:   eventType,
			Payload:     string(body),
			Error:       err.Error(),
			Attempts:    tries,
		}
		if dlErr := n.deadLetter.Append(dl); dlErr != nil {
			n.logger.Error("dead letter write failed", "webhook", ep.Name, "error", dlErr)
		}
	}
	return fmt.Errorf("webhook %s: %w", ep.Name, err)
}

func (n *Notifier) send(ctx context.Context, ep Endpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "specaudit-webhook/1.0")
	if ep.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// StatusError is a non-2xx response from a webhook endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}

// retryable rejects client errors other than 408 and 429, which a resend
// cannot fix.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled)
}

// Sign returns the signature header value for body: "sha256=" plus the hex HMAC.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
