package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
	"github.com/jorgenskogmo/webpub/internal/frontmatter"
	"github.com/jorgenskogmo/webpub/internal/logfields"
)

// IndexFile is the only file name the loader picks up.
const IndexFile = "index.md"

// ModifiedKey is the meta key filled by an Enricher.
const ModifiedKey = "modified"

// Enricher supplies the last-modified time of a source file.
type Enricher interface {
	Modified(path string) (time.Time, bool, error)
}

// Loader reads a content root into a Structure.
type Loader struct {
	Root     string
	Policy   config.FrontmatterPolicy
	Enricher Enricher
}

// NewLoader returns a loader configured from cfg.
func NewLoader(cfg *config.Config, enricher Enricher) *Loader {
	return &Loader{Root: cfg.ContentDirectory, Policy: cfg.Frontmatter.OnError, Enricher: enricher}
}

// Load discovers every index file under the root and parses it. Any read
// error aborts the load; no partial structure is returned.
func (l *Loader) Load(ctx context.Context) (*Structure, error) {
	files, err := l.discover()
	if err != nil {
		return nil, err
	}

	structure := NewStructure()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		url, err := URLForDir(l.Root, filepath.Dir(file))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryContent, "derive url").WithContext("path", file).Build()
		}
		page, keep, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		slog.Debug("Indexed content", logfields.URL(url), logfields.Path(file))
		if err := structure.Add(url, page); err != nil {
			return nil, errors.WrapError(err, errors.CategoryContent, "index content").WithContext("path", file).Build()
		}
	}
	return structure, nil
}

// discover returns index files in lexical walk order. Hidden directories are skipped.
func (l *Loader) discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == IndexFile && d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "scan content directory").
			WithContext("path", l.Root).Build()
	}
	return files, nil
}

func (l *Loader) loadFile(path string) (*Page, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errors.WrapError(err, errors.CategoryContent, "read content file").
			WithContext("path", path).Build()
	}

	raw, body, had := frontmatter.Split(string(data))
	meta := frontmatter.NewMeta()
	if had {
		parsed, err := frontmatter.ParseYAML(raw)
		if err != nil {
			switch l.Policy {
			case config.FrontmatterFail:
				return nil, false, errors.WrapError(err, errors.CategoryFrontmatter, "parse frontmatter").
					WithContext("path", path).Build()
			case config.FrontmatterSkip:
				slog.Warn("Skipping content file with malformed frontmatter", logfields.Path(path), logfields.Error(err))
				return nil, false, nil
			default:
				slog.Warn("Malformed frontmatter, using empty page", logfields.Path(path), logfields.Error(err))
				return &Page{Meta: frontmatter.NewMeta(), Source: path}, true, nil
			}
		}
		meta = parsed
	}

	if l.Enricher != nil && !meta.Has(ModifiedKey) {
		if t, ok, err := l.Enricher.Modified(path); err != nil {
			slog.Debug("Modified lookup failed", logfields.Path(path), logfields.Error(err))
		} else if ok {
			meta.Set(ModifiedKey, t.UTC().Format("2006-01-02"))
		}
	}

	return &Page{
		Meta:        meta,
		Content:     body,
		Source:      path,
		Fingerprint: frontmatter.Fingerprint(raw, body),
	}, true, nil
}
