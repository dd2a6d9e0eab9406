package content

import (
	"encoding/json"
	"io"

	"github.com/jorgenskogmo/webpub/internal/frontmatter"
)

// ManifestFile is the name of the manifest written into the output directory.
const ManifestFile = "content.json"

type manifestEntry struct {
	Meta        *frontmatter.Meta `json:"meta"`
	Markdown    string            `json:"markdown"`
	Fingerprint string            `json:"fingerprint,omitempty"`
}

// WriteManifest writes the structure as a JSON object keyed by URL. Keys are
// sorted and meta keeps its source order, so output is stable across builds.
func WriteManifest(w io.Writer, s *Structure) error {
	entries := make(map[string]manifestEntry, s.Len())
	for _, url := range s.URLs() {
		p, _ := s.Get(url)
		entries[url] = manifestEntry{Meta: p.Meta, Markdown: p.Content, Fingerprint: p.Fingerprint}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
