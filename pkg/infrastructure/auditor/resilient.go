package auditor

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/felixgeelhaar/specaudit/pkg/domain/audit"
	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
)

// ResilienceConfig controls retries and the overall deadline of an audit.
type ResilienceConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Timeout      time.Duration
}

// DefaultResilienceConfig returns the settings used when none are configured.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		Timeout:      2 * time.Minute,
	}
}

// ResilientAuditor retries transient failures of an inner auditor and bounds
// the whole call with a timeout. Client errors and schema violations are
// returned immediately.
type ResilientAuditor struct {
	inner audit.Auditor
	cfg   ResilienceConfig
}

func NewResilientAuditor(inner audit.Auditor, cfg ResilienceConfig) *ResilientAuditor {
	def := DefaultResilienceConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &ResilientAuditor{inner: inner, cfg: cfg}
}

func (a *ResilientAuditor) ID() string {
	return a.inner.ID()
}

func (a *ResilientAuditor) Audit(ctx context.Context, input catalog.AuditInput) ([]catalog.AuditResult, error) {
	r := retry.New[[]catalog.AuditResult](retry.Config{
		MaxAttempts:   a.cfg.MaxAttempts,
		InitialDelay:  a.cfg.InitialDelay,
		BackoffPolicy: retry.BackoffExponential,
		IsRetryable:   func(err error) bool { return !isPermanent(err) },
	})

	t := timeout.New[[]catalog.AuditResult](timeout.Config{
		DefaultTimeout: a.cfg.Timeout,
	})

	return t.Execute(ctx, a.cfg.Timeout, func(ctx context.Context) ([]catalog.AuditResult, error) {
		return r.Do(ctx, func(ctx context.Context) ([]catalog.AuditResult, error) {
			return a.inner.Audit(ctx, input)
		})
	})
}
