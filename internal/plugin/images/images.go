// Package images provides the webpub/srcset and webpub/img plugins. Both
// rewrite local <img> tags to point at resized copies written next to the
// page in an images/ directory.
package images

import (
	"context"
	"fmt"
	stdhtml "html"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/logfields"
	"github.com/jorgenskogmo/webpub/internal/plugin"
)

const (
	SrcsetName = "webpub/srcset"
	ImgName    = "webpub/img"

	imagesDir   = "images"
	fallbackAlt = "no alt text available"
)

var (
	defaultSrcsetWidths = []int{200, 400, 800, 1000, 1200}
	defaultImgWidths    = []int{1200}
)

// Plugin rewrites <img> tags. With srcset enabled every configured width is
// listed in a srcset attribute; otherwise only the single largest width is used.
type Plugin struct {
	name    string
	srcset  bool
	widths  []int
	resizer Resizer
}

// NewSrcset returns the webpub/srcset plugin.
func NewSrcset() *Plugin {
	return &Plugin{name: SrcsetName, srcset: true, widths: slices.Clone(defaultSrcsetWidths), resizer: DrawResizer{}}
}

// NewImg returns the webpub/img plugin.
func NewImg() *Plugin {
	return &Plugin{name: ImgName, widths: slices.Clone(defaultImgWidths), resizer: DrawResizer{}}
}

// Register adds both plugins to r.
func Register(r *plugin.Registry) error {
	if err := r.Register(SrcsetName, func() plugin.Plugin { return NewSrcset() }); err != nil {
		return err
	}
	return r.Register(ImgName, func() plugin.Plugin { return NewImg() })
}

// WithResizer replaces the image resizer.
func (p *Plugin) WithResizer(r Resizer) *Plugin {
	p.resizer = r
	return p
}

func (p *Plugin) Name() string      { return p.name }
func (p *Plugin) Hook() plugin.Hook { return plugin.HookPageBuilt }

// Widths returns the configured widths.
func (p *Plugin) Widths() []int { return slices.Clone(p.widths) }

// Configure accepts `image_widths`, a non-empty list of positive integers.
func (p *Plugin) Configure(options map[string]any) error {
	raw, ok := options["image_widths"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("image_widths must be a list, got %T", raw)
	}
	widths := make([]int, 0, len(list))
	for _, v := range list {
		w, err := toInt(v)
		if err != nil || w <= 0 {
			return fmt.Errorf("image_widths: invalid width %v", v)
		}
		widths = append(widths, w)
	}
	if len(widths) == 0 {
		return fmt.Errorf("image_widths must not be empty")
	}
	p.widths = widths
	return nil
}

// Run rewrites local <img> tags. All other markup is copied byte for byte.
func (p *Plugin) Run(ctx context.Context, cfg *config.Config, url, src string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(src))
	var out strings.Builder
	out.Grow(len(src))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return out.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			if tok.Data != "img" {
				out.WriteString(raw)
				continue
			}
			imgSrc, alt := attr(tok, "src"), attr(tok, "alt")
			if !isLocal(imgSrc) {
				out.WriteString(raw)
				continue
			}
			if err := ctx.Err(); err != nil {
				return "", err
			}
			names, err := p.ensureVariants(cfg, url, imgSrc)
			if err != nil {
				return "", err
			}
			out.WriteString(p.tag(alt, names))
		default:
			out.Write(z.Raw())
		}
	}
}

type variant struct {
	width int
	name  string
}

func (p *Plugin) ensureVariants(cfg *config.Config, url, imgSrc string) ([]variant, error) {
	dir := filepath.Join(cfg.OutputDirectory, filepath.FromSlash(url), imagesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	input := filepath.Join(cfg.ContentDirectory, filepath.FromSlash(url), filepath.FromSlash(imgSrc))
	base := path.Base(imgSrc)

	variants := make([]variant, 0, len(p.widths))
	for _, w := range p.widths {
		name := "w" + strconv.Itoa(w) + "-" + base
		dst := filepath.Join(dir, name)
		variants = append(variants, variant{width: w, name: name})
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		slog.Debug("Creating image variant", logfields.Plugin(p.name), logfields.Path(dst))
		if err := p.resizer.Resize(input, dst, w); err != nil {
			return nil, fmt.Errorf("resize %s to %dpx: %w", input, w, err)
		}
	}
	return variants, nil
}

func (p *Plugin) tag(alt string, variants []variant) string {
	if alt == "" {
		alt = fallbackAlt
	}
	largest := variants[0]
	for _, v := range variants[1:] {
		if v.width > largest.width {
			largest = v
		}
	}

	var b strings.Builder
	b.WriteString(`<img alt="`)
	b.WriteString(stdhtml.EscapeString(alt))
	b.WriteString(`" src="`)
	b.WriteString(stdhtml.EscapeString(imagesDir + "/" + largest.name))
	b.WriteString(`"`)
	if p.srcset {
		parts := make([]string, len(variants))
		for i, v := range variants {
			parts[i] = imagesDir + "/" + v.name + " " + strconv.Itoa(v.width) + "w"
		}
		b.WriteString(` srcset="`)
		b.WriteString(stdhtml.EscapeString(strings.Join(parts, ", ")))
		b.WriteString(`"`)
	}
	b.WriteString(` />`)
	return b.String()
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isLocal(src string) bool {
	if src == "" {
		return false
	}
	lower := strings.ToLower(src)
	for _, prefix := range []string{"http:", "https:", "//", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("not an integer")
		}
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}
