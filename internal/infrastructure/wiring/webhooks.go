package wiring

import (
	"log/slog"
	"path/filepath"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/specaudit/internal/infrastructure/webhook"
)

// LoadNotifier builds the webhook notifier. It returns nil when no enabled
// endpoint is configured; a nil Notifier drops every event.
func LoadNotifier(root string, cfg config.WebhooksConfig, logger *slog.Logger) *webhook.Notifier {
	var endpoints []webhook.Endpoint
	for _, ep := range cfg.Endpoints {
		if ep.Disabled {
			continue
		}
		endpoints = append(endpoints, webhook.Endpoint{
			Name:       ep.Name,
			URL:        ep.URL,
			Secret:     ep.Secret,
			Events:     ep.Events,
			MaxRetries: ep.MaxRetries,
			RetryDelay: ep.RetryDelay(),
		})
	}
	if len(endpoints) == 0 {
		return nil
	}

	opts := []webhook.Option{webhook.WithLogger(logger)}
	if cfg.DeadLetterFile != "" {
		path := cfg.DeadLetterFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		opts = append(opts, webhook.WithDeadLetter(webhook.NewDeadLetterStore(path)))
	}
	return webhook.NewNotifier(endpoints, opts...)
}
