package render

import "github.com/jorgenskogmo/webpub/internal/config"

// Params is passed to the theme for every page.
type Params struct {
	Config *config.Config
	Page   *RenderPage // full page, children in lite form
	Site   *RenderPage // lite tree rooted at the site root
}

// Theme turns a page into a complete HTML document.
type Theme interface {
	Render(p Params) (string, error)
}

// ThemeFunc adapts a function to Theme.
type ThemeFunc func(p Params) (string, error)

func (f ThemeFunc) Render(p Params) (string, error) { return f(p) }
