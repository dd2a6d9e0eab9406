package fsutil

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCopyFS(t *testing.T) {
	src := fstest.MapFS{
		"styles.css":       {Data: []byte("body{}")},
		"js/app.js":        {Data: []byte("console.log(1)")},
		"img/nested/a.png": {Data: []byte{0x89, 'P', 'N', 'G'}},
	}
	dst := filepath.Join(t.TempDir(), "assets")

	require.NoError(t, CopyFS(src, dst))

	got, err := os.ReadFile(filepath.Join(dst, "js", "app.js"))
	require.NoError(t, err)
	require.Equal(t, "console.log(1)", string(got))
	require.FileExists(t, filepath.Join(dst, "img", "nested", "a.png"))
	require.FileExists(t, filepath.Join(dst, "styles.css"))
}

func TestCopyFS_Overwrites(t *testing.T) {
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "a.txt"), []byte("old content"), 0o600))

	require.NoError(t, CopyFS(fstest.MapFS{"a.txt": {Data: []byte("new")}}, dst))

	got, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "f.txt"), []byte("x"), 0o600))

	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, CopyDir(src, dst))
	require.FileExists(t, filepath.Join(dst, "sub", "f.txt"))

	file := filepath.Join(src, "sub", "f.txt")
	require.Error(t, CopyDir(file, dst))
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("x"), 0o600))

	require.NoError(t, Clean(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.DirExists(t, dir)

	require.NoError(t, Clean(filepath.Join(dir, "missing")))
}
