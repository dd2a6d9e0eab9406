// Package plugin defines HTML post-processing plugins and the ordered chain
// the renderer runs every page through.
package plugin

import (
	"context"

	"github.com/jorgenskogmo/webpub/internal/config"
)

// Hook identifies the pipeline stage a plugin applies to.
type Hook string

const (
	// HookPageBuilt runs on each page's HTML after markdown conversion.
	HookPageBuilt Hook = "page_built"
	// HookContentBuilt is reserved for plugins that consume the whole
	// content structure. Nothing invokes it yet.
	HookContentBuilt Hook = "content_built"
)

// Plugin transforms the HTML of one page. Run must return the full HTML; later
// plugins see the output of earlier ones.
type Plugin interface {
	Name() string
	Hook() Hook
	Run(ctx context.Context, cfg *config.Config, url, html string) (string, error)
}

// Configurable plugins receive their config options once at startup.
type Configurable interface {
	Configure(options map[string]any) error
}

// Func adapts a function to Plugin.
type Func struct {
	PluginName string
	On         Hook
	Fn         func(ctx context.Context, cfg *config.Config, url, html string) (string, error)
}

func (f Func) Name() string { return f.PluginName }

func (f Func) Hook() Hook {
	if f.On == "" {
		return HookPageBuilt
	}
	return f.On
}

func (f Func) Run(ctx context.Context, cfg *config.Config, url, html string) (string, error) {
	return f.Fn(ctx, cfg, url, html)
}
