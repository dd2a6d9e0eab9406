package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jorgenskogmo/webpub/internal/content"
	"github.com/jorgenskogmo/webpub/internal/frontmatter"
)

func structureOf(t *testing.T, urls ...string) *content.Structure {
	t.Helper()
	s := content.NewStructure()
	for _, u := range urls {
		require.NoError(t, s.Add(u, &content.Page{Meta: frontmatter.NewMeta(), Content: u}))
	}
	return s
}

func urlsOf(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.URL)
	}
	return out
}

func TestBuild_RootWithOneChild(t *testing.T) {
	root, err := Build(structureOf(t, "/./", "/a/"))
	require.NoError(t, err)
	require.Equal(t, "/./", root.URL)
	require.Equal(t, TypeList, root.Type)
	require.Len(t, root.Children, 1)
	require.Equal(t, "/a/", root.Children[0].URL)
	require.Equal(t, TypeDetail, root.Children[0].Type)
	require.Equal(t, "/a/", root.Children[0].Page.Content)
}

func TestBuild_MissingRoot(t *testing.T) {
	_, err := Build(structureOf(t, "/a/"))
	var missing *MissingRootError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "/./", missing.URL)
}

func TestBuild_RootWithoutChildrenIsList(t *testing.T) {
	root, err := Build(structureOf(t, "/./"))
	require.NoError(t, err)
	require.Equal(t, TypeList, root.Type)
	require.Empty(t, root.Children)
}

func TestBuild_TypeInferenceAndOrder(t *testing.T) {
	root, err := Build(structureOf(t, "/b/", "/a/x/", "/./", "/a/", "/a/c/"))
	require.NoError(t, err)
	require.Equal(t, []string{"/a/", "/b/"}, urlsOf(root.Children))

	a := root.Children[0]
	require.Equal(t, TypeList, a.Type)
	require.Equal(t, []string{"/a/c/", "/a/x/"}, urlsOf(a.Children))
	for _, leaf := range a.Children {
		require.Equal(t, TypeDetail, leaf.Type)
	}
	require.Equal(t, TypeDetail, root.Children[1].Type)
}

func TestBuild_OrphansAreUnreachable(t *testing.T) {
	s := structureOf(t, "/./", "/a/", "/x/y/z/")
	root, err := Build(s)
	require.NoError(t, err)

	var seen []string
	require.NoError(t, Walk(root, func(n, parent *Node) error {
		seen = append(seen, n.URL)
		if parent != nil {
			p, ok := ParentURL(n.URL)
			require.True(t, ok)
			require.Equal(t, parent.URL, p)
		}
		return nil
	}))
	require.Equal(t, []string{"/./", "/a/"}, seen)
	require.Equal(t, []string{"/x/y/z/"}, Orphans(s))

	_, stillLoaded := s.Get("/x/y/z/")
	require.True(t, stillLoaded)
}

func TestParentURL(t *testing.T) {
	_, ok := ParentURL("/./")
	require.False(t, ok)

	cases := map[string]string{
		"/a/":     "/./",
		"/a/b/":   "/a/",
		"/a/b/c/": "/a/b/",
	}
	for in, want := range cases {
		got, ok := ParentURL(in)
		require.True(t, ok)
		require.Equal(t, want, got, in)
	}
}

func TestWalk_PreOrderAndStop(t *testing.T) {
	root, err := Build(structureOf(t, "/./", "/a/", "/a/b/", "/c/"))
	require.NoError(t, err)
	require.Equal(t, 4, Count(root))

	stop := errors.New("stop")
	var seen []string
	err = Walk(root, func(n, _ *Node) error {
		seen = append(seen, n.URL)
		if n.URL == "/a/b/" {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, []string{"/./", "/a/", "/a/b/"}, seen)
}
