package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := "# Title\n\nHello\n"

	fm, body, had := Split(input)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had := Split("---\ntitle: Hello\n---\nBody text")
	require.True(t, had)
	require.Equal(t, "title: Hello", fm)
	require.Equal(t, "Body text", body)
}

func TestSplit_EmptyBlock(t *testing.T) {
	fm, body, had := Split("---\n---\nBody")
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, "Body", body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had := Split("---\na: 1\n---")
	require.True(t, had)
	require.Equal(t, "a: 1", fm)
	require.Empty(t, body)
}

func TestSplit_DashesInsideBlockAreNotDelimiters(t *testing.T) {
	fm, body, had := Split("---\nrule: ----\n---\nBody")
	require.True(t, had)
	require.Equal(t, "rule: ----", fm)
	require.Equal(t, "Body", body)
}

func TestSplit_MissingClosingDelimiter_TreatedAsBody(t *testing.T) {
	input := "---\nkey: value\n# Title\n"

	fm, body, had := Split(input)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)

	_, _, _, err := SplitStrict(input)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had := Split("---\r\nkey: value\r\n---\r\n# Title\r\n")
	require.True(t, had)
	require.Equal(t, "key: value", fm)
	require.Equal(t, "# Title\n", body)
}
