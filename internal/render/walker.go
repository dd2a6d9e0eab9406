package render

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/content"
	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
	"github.com/jorgenskogmo/webpub/internal/logfields"
	"github.com/jorgenskogmo/webpub/internal/plugin"
	"github.com/jorgenskogmo/webpub/internal/tree"
)

// OutputFile is the document name written for every URL.
const OutputFile = "index.html"

// Markdown converts a page body to HTML.
type Markdown interface {
	Render(src string) (string, error)
}

// Walker renders a tree depth-first, parent before children.
type Walker struct {
	Config    *config.Config
	Markdown  Markdown
	Plugins   *plugin.Chain
	Theme     Theme
	OutputDir string
}

// OutputPath returns the index.html path for url under outputDir.
func OutputPath(outputDir, url string) string {
	if url == content.RootURL {
		return filepath.Join(outputDir, OutputFile)
	}
	return filepath.Join(outputDir, filepath.FromSlash(url), OutputFile)
}

// Render walks root and returns the full page of every visited URL. The first
// error stops the walk; pages written before it stay on disk.
func (w *Walker) Render(ctx context.Context, root *tree.Node) (map[string]*RenderPage, error) {
	pages := make(map[string]*RenderPage)
	site := LiteTree(root, nil)
	lite := indexLite(site, make(map[string]*RenderPage))
	if err := w.visit(ctx, root, nil, site, lite, pages); err != nil {
		return pages, err
	}
	return pages, nil
}

func (w *Walker) visit(ctx context.Context, n *tree.Node, parent *string, site *RenderPage, lite, pages map[string]*RenderPage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := OutputPath(w.OutputDir, n.URL)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("url", n.URL).WithContext("path", filepath.Dir(out)).Build()
	}

	html, err := w.Markdown.Render(n.Page.Content)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRender, "convert markdown").WithContext("url", n.URL).Build()
	}
	html, err = w.Plugins.Apply(ctx, plugin.HookPageBuilt, w.Config, n.URL, html)
	if err != nil {
		return err
	}

	self := n.URL
	page := &RenderPage{
		URL:      n.URL,
		Meta:     n.Page.Meta.Clone(),
		Content:  html,
		Type:     n.Type,
		Parent:   parent,
		Children: lite[n.URL].Children,
	}
	pages[n.URL] = page

	doc, err := w.Theme.Render(Params{Config: w.Config, Page: page, Site: site})
	if err != nil {
		return errors.WrapError(err, errors.CategoryTheme, "render theme").WithContext("url", n.URL).Build()
	}
	if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write page").
			WithContext("url", n.URL).WithContext("path", out).Build()
	}
	slog.Debug("Wrote page", logfields.URL(n.URL), logfields.Path(out))

	for _, c := range n.Children {
		if err := w.visit(ctx, c, &self, site, lite, pages); err != nil {
			return err
		}
	}
	return nil
}
