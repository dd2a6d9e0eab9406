package plugin

import (
	"context"
	"log/slog"

	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
	"github.com/jorgenskogmo/webpub/internal/logfields"
)

// Chain is an ordered list of plugins.
type Chain struct {
	plugins []Plugin
}

// NewChain builds a chain from already constructed plugins.
func NewChain(plugins ...Plugin) *Chain {
	return &Chain{plugins: plugins}
}

// Len returns the number of plugins.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.plugins)
}

// Names returns plugin names in run order.
func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.plugins))
	for i, p := range c.plugins {
		out[i] = p.Name()
	}
	return out
}

// Apply runs every plugin registered for hook, in order. The first failure
// aborts the chain.
func (c *Chain) Apply(ctx context.Context, hook Hook, cfg *config.Config, url, html string) (string, error) {
	if c == nil {
		return html, nil
	}
	for _, p := range c.plugins {
		if p.Hook() != hook {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := p.Run(ctx, cfg, url, html)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryPlugin, "plugin failed").
				WithContext("plugin", p.Name()).
				WithContext("url", url).Build()
		}
		slog.Debug("Plugin applied", logfields.Plugin(p.Name()), logfields.URL(url))
		html = out
	}
	return html, nil
}
