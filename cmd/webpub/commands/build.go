package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jorgenskogmo/webpub/internal/build"
	"github.com/jorgenskogmo/webpub/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Clean bool `help:"Remove the output directory contents before building"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if b.Clean {
		cfg.Build.CleanOutput = true
	}
	return runOnce(context.Background(), cfg)
}

// runOnce performs one build without server or watcher.
func runOnce(ctx context.Context, cfg *config.Config) error {
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	if cfg.Build.CleanOutput {
		if err := p.coordinator.Clean(); err != nil {
			return err
		}
	}
	res := p.coordinator.RunBuild(ctx, build.TriggerManual)
	if res.Outcome != build.OutcomeSucceeded {
		return res.Err
	}
	fmt.Printf("Built %d pages into %s in %s\n", res.Pages, cfg.OutputDirectory, res.Duration.Round(time.Millisecond))
	return nil
}
