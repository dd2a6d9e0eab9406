// Package frontmatter splits content files into a `---` delimited YAML header
// and a markdown body, and parses the header into ordered metadata.
package frontmatter

import (
	"errors"
	"strings"
)

const delimiter = "---"

// ErrMissingClosingDelimiter indicates the document started with a frontmatter
// delimiter but never closed it. Split treats such a document as having no
// frontmatter; the error is exposed for callers that want to warn about it.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Split separates the frontmatter block from the body.
//
// The document must start with a line containing exactly `---`; the block ends
// at the next line containing exactly `---`. A single newline after the
// closing delimiter belongs to the delimiter. CRLF line endings are normalised.
// If there is no complete block, had is false and body is the whole text.
func Split(text string) (frontmatter string, body string, had bool) {
	fm, body, had, err := SplitStrict(text)
	if err != nil {
		return "", body, false
	}
	return fm, body, had
}

// SplitStrict is Split but reports an unclosed block as ErrMissingClosingDelimiter.
func SplitStrict(text string) (frontmatter string, body string, had bool, err error) {
	text = normalizeNewlines(text)
	open := delimiter + "\n"
	if !strings.HasPrefix(text, open) {
		return "", text, false, nil
	}
	rest := text[len(open):]

	// Empty block: "---\n---".
	if end, ok := closingAt(rest, 0); ok {
		return "", rest[end:], true, nil
	}

	search := 0
	for {
		idx := strings.Index(rest[search:], "\n"+delimiter)
		if idx < 0 {
			return "", text, false, ErrMissingClosingDelimiter
		}
		start := search + idx
		if end, ok := closingAt(rest, start+1); ok {
			return rest[:start], rest[end:], true, nil
		}
		search = start + 1
	}
}

// closingAt reports whether a delimiter line starts at rest[i] and returns the
// offset just past it, including its newline when present.
func closingAt(rest string, i int) (int, bool) {
	if !strings.HasPrefix(rest[i:], delimiter) {
		return 0, false
	}
	end := i + len(delimiter)
	switch {
	case end == len(rest):
		return end, true
	case rest[end] == '\n':
		return end + 1, true
	}
	return 0, false
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r\n") {
		return s
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}
