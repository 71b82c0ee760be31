package wiring

import (
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/specaudit/pkg/domain/audit"
	"github.com/felixgeelhaar/specaudit/pkg/infrastructure/auditor"
)

// LoadAuditor builds the audit collaborator described by cfg. Relative result
// file paths resolve against root.
func LoadAuditor(root string, cfg config.AuditorConfig) (audit.Auditor, error) {
	switch cfg.Kind {
	case config.AuditorFile:
		path := cfg.ResultsFile
		if path == "" {
			return nil, fmt.Errorf("auditor.results_file is required for the file auditor")
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		return auditor.NewFileAuditor(path), nil

	case config.AuditorHTTP:
		var opts []auditor.HTTPOption
		for k, v := range cfg.Headers {
			opts = append(opts, auditor.WithHeader(k, v))
		}
		base := auditor.NewHTTPAuditor(cfg.Endpoint, opts...)

		resilience := auditor.DefaultResilienceConfig()
		if cfg.MaxRetries > 0 {
			resilience.MaxAttempts = cfg.MaxRetries + 1
		}
		if cfg.RetryDelayMs > 0 {
			resilience.InitialDelay = cfg.RetryDelay()
		}
		if cfg.TimeoutSec > 0 {
			resilience.Timeout = cfg.Timeout()
		}
		return auditor.NewResilientAuditor(base, resilience), nil

	default:
		return nil, fmt.Errorf("unknown auditor kind %q", cfg.Kind)
	}
}
