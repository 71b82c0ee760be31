package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/specaudit/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/domain/audit"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
)

// AppServices exposes the configured collaborators for one working directory.
type AppServices struct {
	Root     string
	Config   *config.Config
	Auditor  audit.Auditor
	Notifier *webhook.Notifier
	Logger   *slog.Logger
}

// BuildAppServices loads configuration from root (or configPath when set) and
// builds the auditor. A nil logger falls back to slog.Default().
func BuildAppServices(root, configPath string, logger *slog.Logger) (*AppServices, error) {
	cfg, err := config.Load(root, configPath)
	if err != nil {
		return nil, err
	}
	return BuildAppServicesWithAuditor(root, cfg, logger, func(root string, c config.AuditorConfig) (audit.Auditor, error) {
		return LoadAuditor(root, c)
	})
}

// BuildAppServicesWithAuditor allows callers to supply a custom auditor resolver.
func BuildAppServicesWithAuditor(root string, cfg *config.Config, logger *slog.Logger, resolver func(string, config.AuditorConfig) (audit.Auditor, error)) (*AppServices, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	a, err := resolver(root, cfg.Auditor)
	if err != nil {
		return nil, fmt.Errorf("failed to build auditor: %w", err)
	}
	logger.Debug("auditor configured", "auditor", a.ID(), "kind", cfg.Auditor.Kind)

	return &AppServices{
		Root:     root,
		Config:   cfg,
		Auditor:  a,
		Notifier: LoadNotifier(root, cfg.Webhooks, logger),
		Logger:   logger,
	}, nil
}

// NewIntake starts a fresh form session against the configured auditor.
func (s *AppServices) NewIntake(opts ...application.IntakeOption) (*application.IntakeService, error) {
	all := append([]application.IntakeOption{application.WithLogger(s.Logger)}, opts...)
	return application.NewIntakeService(s.Auditor, all...)
}

// NotifyAudited reports a completed audit to the configured webhooks.
func (s *AppServices) NotifyAudited(ctx context.Context, sub application.Submission, v report.View) error {
	summary := v.Summary
	return s.Notifier.Notify(ctx, webhook.EventAudited, SubmissionEvent{Submission: sub, Summary: &summary})
}

// NotifyProceeded hands a submission over to Stage 2 through the configured webhooks.
func (s *AppServices) NotifyProceeded(ctx context.Context, sub application.Submission) error {
	return s.Notifier.Notify(ctx, webhook.EventProceeded, SubmissionEvent{Submission: sub})
}

// SubmissionEvent is the data of submission webhooks.
type SubmissionEvent struct {
	Submission application.Submission `json:"submission"`
	Summary    *report.Summary        `json:"summary,omitempty"`
}
