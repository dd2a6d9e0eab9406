// Package theme loads html/template themes from a directory and falls back to
// an embedded default theme.
//
// A theme directory holds *.html template files, one of which must define the
// "render" template. Files under assets/ are copied to the output verbatim.
package theme

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jorgenskogmo/webpub/internal/content"
	"github.com/jorgenskogmo/webpub/internal/render"
)

// EntryTemplate is the template executed for every page.
const EntryTemplate = "render"

// AssetsDir is the theme subdirectory copied to output/assets.
const AssetsDir = "assets"

// Template is a parsed theme.
type Template struct {
	tmpl    *template.Template
	version string
}

var _ render.Theme = (*Template)(nil)

// Version returns the token the theme was parsed under.
func (t *Template) Version() string { return t.version }

// Render executes the entry template.
func (t *Template) Render(p render.Params) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, EntryTemplate, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newTemplate() *template.Template {
	return template.New("theme").Funcs(Funcs())
}

func checkEntry(t *template.Template) error {
	if t.Lookup(EntryTemplate) == nil {
		return fmt.Errorf("theme does not define a %q template", EntryTemplate)
	}
	return nil
}

// Funcs returns the helpers available to theme templates.
func Funcs() template.FuncMap {
	titleCaser := cases.Title(language.English)
	return template.FuncMap{
		// safeHTML marks rendered page content as trusted.
		"safeHTML": func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec // page HTML is produced by the build
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
		"title":  func(s string) string { return titleCaser.String(strings.ReplaceAll(s, "-", " ")) },
		"isRoot": func(url string) bool { return url == content.RootURL },
		"href": func(url string) string {
			if url == content.RootURL {
				return "/"
			}
			return url
		},
		"slug": func(url string) string {
			trimmed := strings.Trim(url, "/.")
			if i := strings.LastIndex(trimmed, "/"); i >= 0 {
				return trimmed[i+1:]
			}
			return trimmed
		},
	}
}
