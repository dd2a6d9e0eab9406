package theme

import (
	"embed"
	"io/fs"
	"sync"
)

//go:embed default/*.html default/assets/*
var defaultFS embed.FS

var defaultTheme = sync.OnceValues(func() (*Template, error) {
	t, err := newTemplate().ParseFS(defaultFS, "default/*.html")
	if err != nil {
		return nil, err
	}
	if err := checkEntry(t); err != nil {
		return nil, err
	}
	return &Template{tmpl: t, version: "default"}, nil
})

// Default returns the embedded theme.
func Default() (*Template, error) {
	return defaultTheme()
}

func defaultAssets() fs.FS {
	sub, err := fs.Sub(defaultFS, "default/assets")
	if err != nil {
		panic("embedded default theme assets missing: " + err.Error())
	}
	return sub
}
