package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
)

// Validate checks the config for startup errors. A failure here is fatal:
// the process exits before any build is attempted.
func (c *Config) Validate() error {
	if c.ContentDirectory == "" {
		return errors.ValidationError("content_directory is required").Build()
	}
	st, err := os.Stat(c.ContentDirectory)
	if err != nil || !st.IsDir() {
		return errors.ConfigError("content directory not found or not a directory").
			WithContext("path", c.ContentDirectory).Build()
	}
	if c.OutputDirectory == "" {
		return errors.ValidationError("output_directory is required").Build()
	}
	if c.ThemeDirectory != "" {
		if st, err := os.Stat(c.ThemeDirectory); err != nil || !st.IsDir() {
			return errors.ConfigError("theme directory not found or not a directory").
				WithContext("path", c.ThemeDirectory).Build()
		}
	}
	for key, dir := range map[string]string{"content_directory": c.ContentDirectory, "theme_directory": c.ThemeDirectory} {
		if dir != "" && overlaps(c.OutputDirectory, dir) {
			return errors.ValidationError("output_directory must not overlap "+key).
				WithContext("output", c.OutputDirectory).
				WithContext(key, dir).Build()
		}
	}
	if !c.Frontmatter.OnError.Valid() {
		return errors.ValidationError("unknown frontmatter.on_error policy").
			WithContext("value", string(c.Frontmatter.OnError)).Build()
	}
	if c.Watch.Debounce <= 0 {
		return errors.ValidationError("watch.debounce must be > 0").Build()
	}
	if c.Watch.Grace < 0 || c.Watch.RebuildInterval < 0 || c.Build.Timeout < 0 {
		return errors.ValidationError("durations must not be negative").Build()
	}
	if c.DevServerPort <= 0 || c.DevServerPort > 65535 {
		return errors.ValidationError("devserver_port out of range").
			WithContext("port", c.DevServerPort).Build()
	}
	for i, p := range c.Plugins {
		if p.Name == "" {
			return errors.ValidationError("plugin entry without name").WithContext("index", i).Build()
		}
	}
	return nil
}

// overlaps reports whether a and b are the same directory or one contains the other.
func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
