package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
)

// DefaultFile is the config file looked up when no --config flag is given.
const DefaultFile = "webpub.config.json"

// Config is the site configuration. It is read-only for the duration of a build.
type Config struct {
	Name             string          `yaml:"name"`
	Version          string          `yaml:"version"`
	ContentDirectory string          `yaml:"content_directory"`
	OutputDirectory  string          `yaml:"output_directory"`
	ThemeDirectory   string          `yaml:"theme_directory"`
	Plugins          []PluginConfig  `yaml:"plugins"`
	MarkedOptions    MarkdownOptions `yaml:"marked_options"`
	OpenBrowser      bool            `yaml:"open_browser"`
	DevServerEnabled bool            `yaml:"devserver_enabled"`
	DevServerPort    int             `yaml:"devserver_port"`

	Frontmatter FrontmatterConfig `yaml:"frontmatter"`
	Watch       WatchConfig       `yaml:"watch"`
	Build       BuildConfig       `yaml:"build"`
	History     HistoryConfig     `yaml:"history"`
	Notify      NotifyConfig      `yaml:"notify"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// PluginConfig selects a registered plugin and its options.
type PluginConfig struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// MarkdownOptions controls the markdown renderer.
type MarkdownOptions struct {
	GFM    bool `yaml:"gfm"`
	Breaks bool `yaml:"breaks"`
	Unsafe bool `yaml:"unsafe"` // pass raw HTML through
}

// FrontmatterConfig controls how malformed frontmatter is handled.
type FrontmatterConfig struct {
	OnError FrontmatterPolicy `yaml:"on_error"`
}

// WatchConfig tunes the file watcher.
type WatchConfig struct {
	Debounce        time.Duration `yaml:"debounce"`
	Grace           time.Duration `yaml:"grace"`
	RebuildInterval time.Duration `yaml:"rebuild_interval"`
}

// BuildConfig holds build-cycle options.
type BuildConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	CleanOutput     bool          `yaml:"clean_output"`
	ContentManifest bool          `yaml:"content_manifest"`
	GitMetadata     bool          `yaml:"git_metadata"`
}

// HistoryConfig enables the build history database when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig enables build event publishing when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig toggles the Prometheus endpoint on the dev server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a config populated with defaults. Load decodes on top of it.
func Default() *Config {
	return &Config{
		Name:             "webpub site",
		Version:          "0.0.1",
		ContentDirectory: "content",
		OutputDirectory:  "dist",
		MarkedOptions:    MarkdownOptions{GFM: true, Unsafe: true},
		DevServerEnabled: true,
		DevServerPort:    3001,
		Frontmatter:      FrontmatterConfig{OnError: FrontmatterEmpty},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
			Grace:    50 * time.Millisecond,
		},
		Notify: NotifyConfig{Subject: "webpub.builds"},
	}
}

// Load reads the config file, expanding environment variables, and resolves
// directories relative to the file's location.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve config path").Fatal().Build()
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", abs).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read config file").Fatal().WithContext("path", abs).Build()
	}

	baseDir := filepath.Dir(abs)
	loadEnvFiles(baseDir)

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(baseDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML or JSON config data on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse config file").Fatal().UserAction().Build()
	}
	if cfg.Frontmatter.OnError == "" {
		cfg.Frontmatter.OnError = FrontmatterEmpty
	}
	return cfg, nil
}

func (c *Config) resolvePaths(baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	c.ContentDirectory = resolve(c.ContentDirectory)
	c.OutputDirectory = resolve(c.OutputDirectory)
	c.ThemeDirectory = resolve(c.ThemeDirectory)
	c.History.Path = resolve(c.History.Path)
}

// WatchRoots lists the directories whose changes trigger a rebuild.
func (c *Config) WatchRoots() []string {
	roots := []string{c.ContentDirectory}
	if c.ThemeDirectory != "" {
		roots = append(roots, c.ThemeDirectory)
	}
	return roots
}
