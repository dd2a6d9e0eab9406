package theme

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
	"github.com/jorgenskogmo/webpub/internal/logfields"
)

// Source re-acquires the theme before each build. Templates are re-parsed
// whenever the version token of the theme files changes, so a build never
// renders with stale templates.
type Source struct {
	Dir string

	mu      sync.Mutex
	current *Template
}

// NewSource returns a Source for dir. An empty dir selects the default theme.
func NewSource(dir string) *Source {
	return &Source{Dir: dir}
}

// Resolve returns the theme for the next build.
func (s *Source) Resolve() (*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, version, err := s.scan()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return Default()
	}
	if s.current != nil && s.current.version == version {
		return s.current, nil
	}

	t, err := newTemplate().ParseFiles(files...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTheme, "parse theme templates").
			WithContext("path", s.Dir).Build()
	}
	if err := checkEntry(t); err != nil {
		return nil, errors.WrapError(err, errors.CategoryTheme, "invalid theme").WithContext("path", s.Dir).Build()
	}
	slog.Info("Loaded theme", logfields.Path(s.Dir), slog.String("version", version[:12]), slog.Int("templates", len(files)))
	s.current = &Template{tmpl: t, version: version}
	return s.current, nil
}

// Assets returns the theme asset tree. When the default templates are in use,
// because no dir is set or it holds no templates, the default assets are
// returned with them.
func (s *Source) Assets() fs.FS {
	files, _, err := s.scan()
	if err == nil && len(files) == 0 {
		return defaultAssets()
	}
	dir := filepath.Join(s.Dir, AssetsDir)
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		return os.DirFS(dir)
	}
	return nil
}

// scan lists template files and derives a version token from their paths,
// sizes and modification times.
func (s *Source) scan() ([]string, string, error) {
	if s.Dir == "" {
		return nil, "", nil
	}
	var files []string
	h := sha256.New()
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.Dir && (d.Name() == AssetsDir || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".html" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, path)
		fmt.Fprintf(h, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryTheme, "scan theme directory").
			WithContext("path", s.Dir).Build()
	}
	sort.Strings(files)
	return files, hex.EncodeToString(h.Sum(nil)), nil
}
