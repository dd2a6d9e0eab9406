package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jorgenskogmo/webpub/internal/config"
)

// Site is a throwaway project directory with content and output roots.
type Site struct {
	t      *testing.T
	Dir    string
	config *config.Config
}

// NewSite creates a site in a temp dir with empty content and output roots.
func NewSite(t *testing.T) *Site {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Name = "Test Site"
	cfg.ContentDirectory = filepath.Join(dir, "content")
	cfg.OutputDirectory = filepath.Join(dir, "dist")
	require.NoError(t, os.MkdirAll(cfg.ContentDirectory, testDirPermissions))
	return &Site{t: t, Dir: dir, config: cfg}
}

// Page writes text to <content>/<rel>/index.md. An empty rel is the root page.
func (s *Site) Page(rel, text string) *Site {
	s.t.Helper()
	dir := filepath.Join(s.config.ContentDirectory, filepath.FromSlash(rel))
	require.NoError(s.t, os.MkdirAll(dir, testDirPermissions))
	require.NoError(s.t, os.WriteFile(filepath.Join(dir, "index.md"), []byte(text), testFilePermissions))
	return s
}

// File writes an arbitrary file under the content root, such as an image.
func (s *Site) File(rel string, data []byte) *Site {
	s.t.Helper()
	path := filepath.Join(s.config.ContentDirectory, filepath.FromSlash(rel))
	require.NoError(s.t, os.MkdirAll(filepath.Dir(path), testDirPermissions))
	require.NoError(s.t, os.WriteFile(path, data, testFilePermissions))
	return s
}

// WithManifest enables the content.json manifest.
func (s *Site) WithManifest() *Site {
	s.config.Build.ContentManifest = true
	return s
}

// WithPolicy sets the malformed frontmatter policy.
func (s *Site) WithPolicy(p config.FrontmatterPolicy) *Site {
	s.config.Frontmatter.OnError = p
	return s
}

// WithPlugin appends a plugin entry.
func (s *Site) WithPlugin(name string, options map[string]any) *Site {
	s.config.Plugins = append(s.config.Plugins, config.PluginConfig{Name: name, Options: options})
	return s
}

// Config returns the site's configuration. Callers may mutate it.
func (s *Site) Config() *config.Config { return s.config }

// Output returns assertions rooted at the output directory.
func (s *Site) Output() *FileAssertions {
	return NewFileAssertions(s.t, s.config.OutputDirectory)
}

// WriteConfigFile writes the configuration with relative paths to
// <dir>/webpub.config.json and returns the path, for tests that go through
// config.Load.
func (s *Site) WriteConfigFile() string {
	s.t.Helper()
	out := *s.config
	out.ContentDirectory = "content"
	out.OutputDirectory = "dist"
	data, err := yaml.Marshal(&out)
	require.NoError(s.t, err)
	path := filepath.Join(s.Dir, config.DefaultFile)
	require.NoError(s.t, os.WriteFile(path, data, testFilePermissions))
	return path
}
