// Package markdown converts page bodies to HTML with goldmark.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jorgenskogmo/webpub/internal/config"
)

// Options controls the conversion.
type Options struct {
	GFM    bool // tables, strikethrough, autolinks, task lists
	Breaks bool // single newlines become <br>
	Unsafe bool // raw HTML in the source passes through
}

// OptionsFrom maps the marked_options config block.
func OptionsFrom(o config.MarkdownOptions) Options {
	return Options{GFM: o.GFM, Breaks: o.Breaks, Unsafe: o.Unsafe}
}

// Renderer is safe for concurrent use and reused across a build.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer for opts.
func New(opts Options) *Renderer {
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	var rendererOpts []goldmark.Option
	var htmlOpts []renderer.Option
	if opts.Breaks {
		htmlOpts = append(htmlOpts, gmhtml.WithHardWraps())
	}
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, gmhtml.WithUnsafe())
	}
	if len(htmlOpts) > 0 {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(htmlOpts...))
	}
	return &Renderer{
		md: goldmark.New(append(rendererOpts, goldmark.WithExtensions(exts...))...),
	}
}

// Render converts a markdown body to an HTML fragment.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
