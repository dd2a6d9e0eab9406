package config

import (
	"encoding/json"
	"os"

	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
)

// Init writes a starter config file. It refuses to overwrite unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).Build()
	}

	starter := map[string]any{
		"name":              "webpub site",
		"version":           "0.0.1",
		"content_directory": "content",
		"output_directory":  "dist",
		"theme_directory":   "",
		"plugins": []map[string]any{
			{"name": "webpub/srcset", "options": map[string]any{"image_widths": []int{400, 800, 1200}}},
		},
		"marked_options": map[string]any{"gfm": true, "breaks": true},
		"open_browser":   false,
		"devserver_port": 3001,
		"frontmatter":    map[string]any{"on_error": string(FrontmatterEmpty)},
		"watch":          map[string]any{"debounce": "300ms", "grace": "50ms"},
		"build":          map[string]any{"clean_output": true},
	}
	data, err := json.MarshalIndent(starter, "", "  ")
	if err != nil {
		return errors.InternalError("marshal starter config").Build()
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write config file").WithContext("path", path).Build()
	}
	return nil
}
