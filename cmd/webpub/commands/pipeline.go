package commands

import (
	"log/slog"
	"net/http"

	"github.com/jorgenskogmo/webpub/internal/build"
	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
	"github.com/jorgenskogmo/webpub/internal/history"
	"github.com/jorgenskogmo/webpub/internal/logfields"
	"github.com/jorgenskogmo/webpub/internal/metrics"
	"github.com/jorgenskogmo/webpub/internal/notify"
	"github.com/jorgenskogmo/webpub/internal/plugin"
	"github.com/jorgenskogmo/webpub/internal/plugin/images"
)

// pipeline holds a coordinator and the collaborators that need closing.
type pipeline struct {
	coordinator *build.Coordinator
	history     history.Store
	publisher   notify.Publisher
	metrics     http.Handler
}

// newPipeline builds the plugin chain and wires the optional history,
// notify and metrics collaborators selected by cfg.
func newPipeline(cfg *config.Config) (*pipeline, error) {
	reg := plugin.NewRegistry()
	if err := images.Register(reg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "register built-in plugins").Build()
	}
	chain, err := reg.Chain(cfg.Plugins)
	if err != nil {
		return nil, err
	}
	if chain.Len() > 0 {
		slog.Info("Plugins configured", slog.Any("plugins", chain.Names()))
	}

	p := &pipeline{
		coordinator: build.NewCoordinator(cfg, chain),
		history:     history.NopStore{},
		publisher:   notify.NopPublisher{},
	}

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "open build history").
				WithContext("path", cfg.History.Path).Build()
		}
		p.history = store
		p.coordinator.WithHistory(store)
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			// events are optional; a missing broker never blocks builds
			slog.Warn("Build events disabled", logfields.Error(err))
		} else {
			p.publisher = pub
			p.coordinator.WithPublisher(pub)
		}
	}

	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		p.coordinator.WithRecorder(metrics.NewPrometheusRecorder(reg))
		p.metrics = metrics.HTTPHandler(reg)
	}
	return p, nil
}

func (p *pipeline) Close() {
	if err := p.publisher.Close(); err != nil {
		slog.Warn("Failed to close build event publisher", logfields.Error(err))
	}
	if err := p.history.Close(); err != nil {
		slog.Warn("Failed to close build history", logfields.Error(err))
	}
}
