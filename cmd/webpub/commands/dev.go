package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jorgenskogmo/webpub/internal/build"
	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/livereload"
	"github.com/jorgenskogmo/webpub/internal/logfields"
	"github.com/jorgenskogmo/webpub/internal/schedule"
	"github.com/jorgenskogmo/webpub/internal/server"
	"github.com/jorgenskogmo/webpub/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// DevCmd implements the 'dev' command: initial build, watcher and dev server.
type DevCmd struct {
	Port      int  `short:"p" help:"Dev server port (overrides devserver_port)"`
	Open      bool `help:"Open the site in a browser once the server is up"`
	NoServer  bool `name:"no-server" help:"Watch and rebuild without serving"`
	BuildOnly bool `name:"build-only" help:"Build once and exit, same as 'webpub build'"`
}

func (d *DevCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if d.BuildOnly {
		return runOnce(context.Background(), cfg)
	}
	d.apply(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runDev(ctx, cfg)
}

func (d *DevCmd) apply(cfg *config.Config) {
	if d.Port > 0 {
		cfg.DevServerPort = d.Port
	}
	if d.Open {
		cfg.OpenBrowser = true
	}
	if d.NoServer {
		cfg.DevServerEnabled = false
	}
}

// runDev runs until ctx is canceled. A failing build never stops the loop;
// the next change triggers another attempt.
func runDev(ctx context.Context, cfg *config.Config) error {
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	coord := p.coordinator
	var srv *server.Server
	if cfg.DevServerEnabled {
		hub := livereload.NewHub()
		coord.WithNotifier(hub)
		srv = server.New(cfg, server.Options{
			Hub:     hub,
			Status:  coord,
			History: p.history,
			Metrics: p.metrics,
		})
	}

	if cfg.Build.CleanOutput {
		if err := coord.Clean(); err != nil {
			return err
		}
	}
	if res := coord.RunBuild(ctx, build.TriggerInitial); res.Outcome == build.OutcomeFailed {
		slog.Warn("Initial build failed; waiting for changes", logfields.Error(res.Err))
	}

	if srv != nil {
		if err := srv.Start(ctx); err != nil {
			return err
		}
		fmt.Printf("Serving %s at %s\n", cfg.OutputDirectory, srv.URL())
		if cfg.OpenBrowser {
			if err := server.OpenBrowser(ctx, srv.URL()); err != nil {
				slog.Warn("Failed to open browser", logfields.Error(err))
			}
		}
	}

	if cfg.Watch.RebuildInterval > 0 {
		rb, err := schedule.NewRebuilder(cfg.Watch.RebuildInterval, func(ctx context.Context) {
			coord.RunBuild(ctx, build.TriggerSchedule)
		})
		if err != nil {
			return err
		}
		if err := rb.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := rb.Stop(); err != nil {
				slog.Warn("Failed to stop periodic rebuild", logfields.Error(err))
			}
		}()
	}

	watchErr := watch.New(cfg, coord).Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			slog.Warn("Dev server shutdown error", logfields.Error(err))
		}
	}
	return watchErr
}
