package content

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jorgenskogmo/webpub/internal/frontmatter"
)

// RootURL is the reserved URL of the content root.
const RootURL = "/./"

// Page is one discovered content unit.
type Page struct {
	Meta        *frontmatter.Meta
	Content     string // markdown body, frontmatter stripped
	Source      string // absolute path of the index file
	Fingerprint string
}

// Structure maps canonical URLs to pages.
type Structure struct {
	mu    sync.RWMutex
	pages map[string]*Page
}

// NewStructure returns an empty structure.
func NewStructure() *Structure {
	return &Structure{pages: map[string]*Page{}}
}

// Add registers a page under url. Duplicate URLs are rejected.
func (s *Structure) Add(url string, page *Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pages[url]; exists {
		return fmt.Errorf("duplicate content url %q", url)
	}
	s.pages[url] = page
	return nil
}

// Get returns the page at url.
func (s *Structure) Get(url string) (*Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[url]
	return p, ok
}

// Root returns the root page if present.
func (s *Structure) Root() (*Page, bool) { return s.Get(RootURL) }

// Len returns the number of pages.
func (s *Structure) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// URLs returns all URLs sorted lexicographically.
func (s *Structure) URLs() []string {
	s.mu.RLock()
	urls := make([]string, 0, len(s.pages))
	for u := range s.pages {
		urls = append(urls, u)
	}
	s.mu.RUnlock()
	sort.Strings(urls)
	return urls
}
