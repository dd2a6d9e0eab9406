package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint returns the content fingerprint of a page from its raw
// frontmatter block and body. An existing fingerprint field is ignored.
func Fingerprint(rawFrontmatter, body string) string {
	lines := strings.Split(rawFrontmatter, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, mdfp.FingerprintField+":") {
			continue
		}
		kept = append(kept, line)
	}
	fm := strings.TrimSuffix(strings.Join(kept, "\n"), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, body)
}
