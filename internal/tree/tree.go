// Package tree assembles the flat URL to Page structure into a rooted tree.
//
// Each node's parent is derived structurally by dropping the last URL segment.
// Nodes whose parent has no page are never attached and are therefore not
// reachable from the root; Orphans reports them.
package tree

import (
	"fmt"
	"strings"

	"github.com/jorgenskogmo/webpub/internal/content"
)

// Type distinguishes index pages from leaf pages.
type Type string

const (
	TypeList   Type = "list"
	TypeDetail Type = "detail"
)

// Node is one page in the site tree. Children are owned by their parent.
type Node struct {
	URL      string
	Page     *content.Page
	Type     Type
	Children []*Node
}

// MissingRootError is returned when the structure has no root page.
type MissingRootError struct {
	URL string
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("root page %q is missing in content", e.URL)
}

// Build creates the tree. Children are attached in sorted URL order and every
// node that receives a child becomes a list. The root is always a list.
func Build(s *content.Structure) (*Node, error) {
	if _, ok := s.Root(); !ok {
		return nil, &MissingRootError{URL: content.RootURL}
	}

	urls := s.URLs()
	nodes := make(map[string]*Node, len(urls))
	for _, url := range urls {
		p, _ := s.Get(url)
		nodes[url] = &Node{URL: url, Page: p, Type: TypeDetail}
	}

	for _, url := range urls {
		parentURL, ok := ParentURL(url)
		if !ok {
			continue
		}
		parent, exists := nodes[parentURL]
		if !exists {
			continue
		}
		parent.Children = append(parent.Children, nodes[url])
		parent.Type = TypeList
	}

	root := nodes[content.RootURL]
	root.Type = TypeList
	return root, nil
}

// ParentURL returns the structural parent of url. The root has none.
func ParentURL(url string) (string, bool) {
	if url == content.RootURL {
		return "", false
	}
	var parts []string
	for _, seg := range strings.Split(url, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	if len(parts) <= 1 {
		return content.RootURL, true
	}
	return "/" + strings.Join(parts[:len(parts)-1], "/") + "/", true
}

// Orphans lists URLs whose derived parent has no page, in sorted order.
// These pages are loaded but never rendered.
func Orphans(s *content.Structure) []string {
	var out []string
	for _, url := range s.URLs() {
		parent, ok := ParentURL(url)
		if !ok {
			continue
		}
		if _, exists := s.Get(parent); !exists {
			out = append(out, url)
		}
	}
	return out
}

// Walk visits the tree in pre-order. Returning an error stops the walk.
func Walk(root *Node, fn func(n *Node, parent *Node) error) error {
	return walk(root, nil, fn)
}

func walk(n, parent *Node, fn func(*Node, *Node) error) error {
	if err := fn(n, parent); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walk(c, n, fn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes reachable from root.
func Count(root *Node) int {
	n := 0
	_ = Walk(root, func(*Node, *Node) error { n++; return nil })
	return n
}
