package content

import (
	"path/filepath"
	"strings"
)

// URLForDir derives the canonical URL of a content directory relative to root.
func URLForDir(root, dir string) (string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", err
	}
	var segments []string
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == "" || seg == "." {
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return RootURL, nil
	}
	return "/" + strings.Join(segments, "/") + "/", nil
}
