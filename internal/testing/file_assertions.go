package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FileAssertions provides utilities for asserting file system state in tests
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

// NewFileAssertions creates a new file assertions helper
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

// AssertFileExists validates that a file exists
func (fa *FileAssertions) AssertFileExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, relativePath)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		fa.t.Errorf("Expected file to exist: %s", fullPath)
	}
	return fa
}

// AssertFileNotExists validates that a file does not exist
func (fa *FileAssertions) AssertFileNotExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, relativePath)
	if _, err := os.Stat(fullPath); err == nil {
		fa.t.Errorf("Expected file to not exist: %s", fullPath)
	}
	return fa
}

// AssertPage validates that url was rendered, e.g. "/a/b/" -> a/b/index.html.
func (fa *FileAssertions) AssertPage(url string) *FileAssertions {
	fa.t.Helper()
	return fa.AssertFileExists(pagePath(url))
}

// AssertNoPage validates that url was not rendered.
func (fa *FileAssertions) AssertNoPage(url string) *FileAssertions {
	fa.t.Helper()
	return fa.AssertFileNotExists(pagePath(url))
}

// AssertFileContains validates that a file contains specific content
func (fa *FileAssertions) AssertFileContains(relativePath, expectedContent string) *FileAssertions {
	fa.t.Helper()
	content := fa.GetFileContent(relativePath)
	if !strings.Contains(content, expectedContent) {
		fa.t.Errorf("Expected %s to contain %q", relativePath, expectedContent)
	}
	return fa
}

// CountFiles counts regular files below relativePath.
func (fa *FileAssertions) CountFiles(relativePath string) int {
	fa.t.Helper()
	count := 0
	_ = filepath.WalkDir(filepath.Join(fa.baseDir, relativePath), func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

// GetFileContent returns the file's content, failing the test if unreadable.
func (fa *FileAssertions) GetFileContent(relativePath string) string {
	fa.t.Helper()
	data, err := os.ReadFile(filepath.Join(fa.baseDir, relativePath))
	if err != nil {
		fa.t.Fatalf("Failed to read %s: %v", relativePath, err)
	}
	return string(data)
}

func pagePath(url string) string {
	url = strings.Trim(url, "/")
	if url == "" || url == "." {
		return "index.html"
	}
	return filepath.Join(filepath.FromSlash(url), "index.html")
}
