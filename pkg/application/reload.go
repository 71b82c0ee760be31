package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/specaudit/pkg/domain/normalize"
	"github.com/google/uuid"
)

// Reload event types.
const (
	ReloadOK     = "reload.ok"
	ReloadFailed = "reload.failed"
)

// ReloadEvent reports the outcome of re-normalizing a watched file.
type ReloadEvent struct {
	ID        string               `json:"id"`
	Type      string               `json:"type"`
	Path      string               `json:"path"`
	Shape     string               `json:"shape,omitempty"`
	Specs     int                  `json:"specs"`
	Tiers     map[catalog.Tier]int `json:"tiers,omitempty"`
	Error     string               `json:"error,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// Reloader re-normalizes specification files for one MCAT name and publishes
// the outcome.
type Reloader struct {
	mcatName string
	publish  func(ReloadEvent)
	logger   *slog.Logger
	now      func() time.Time
}

// NewReloader creates a reloader. publish may be nil; a nil logger falls back
// to slog.Default().
func NewReloader(mcatName string, publish func(ReloadEvent), logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{
		mcatName: mcatName,
		publish:  publish,
		logger:   logger,
		now:      time.Now,
	}
}

// Reload reads path, normalizes it and publishes the result. Validation
// failures are reported in the event rather than returned.
func (r *Reloader) Reload(ctx context.Context, path string) ReloadEvent {
	ev := ReloadEvent{
		ID:        uuid.NewString(),
		Type:      ReloadOK,
		Path:      path,
		Timestamp: r.now(),
	}

	input, shape, err := r.normalize(ctx, path)
	if err != nil {
		ev.Type = ReloadFailed
		ev.Error = normalize.Message(err)
		r.logger.Warn("reload failed", "file", path, "error", err)
	} else {
		ev.Shape = shape.String()
		ev.Specs = len(input.Specifications)
		ev.Tiers = input.CountByTier()
		r.logger.Info("reloaded specifications", "file", path, "shape", ev.Shape, "specs", ev.Specs)
	}

	if r.publish != nil {
		r.publish(ev)
	}
	return ev
}

func (r *Reloader) normalize(ctx context.Context, path string) (*catalog.AuditInput, normalize.Shape, error) {
	data, err := FileSource{Path: path}.Read(ctx)
	if err != nil {
		return nil, normalize.ShapeUnknown, err
	}
	doc, err := normalize.ParseDocument(data)
	if err != nil {
		return nil, normalize.ShapeUnknown, err
	}
	input, err := normalize.Normalize(doc, r.mcatName)
	if err != nil {
		return nil, normalize.Detect(doc), err
	}
	return input, normalize.Detect(doc), nil
}
