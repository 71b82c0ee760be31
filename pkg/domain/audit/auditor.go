// Package audit defines the boundary to the external audit collaborator.
package audit

import (
	"context"

	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
)

// Auditor checks a submission and returns one verdict per specification.
type Auditor interface {
	ID() string
	Audit(ctx context.Context, input catalog.AuditInput) ([]catalog.AuditResult, error)
}

// Func adapts a function to the Auditor interface.
type Func func(ctx context.Context, input catalog.AuditInput) ([]catalog.AuditResult, error)

// ID returns a fixed identifier for function auditors.
func (f Func) ID() string { return "func" }

// Audit calls f.
func (f Func) Audit(ctx context.Context, input catalog.AuditInput) ([]catalog.AuditResult, error) {
	return f(ctx, input)
}
