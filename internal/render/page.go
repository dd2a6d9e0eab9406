// Package render walks the site tree and writes one index.html per page.
package render

import (
	"github.com/jorgenskogmo/webpub/internal/frontmatter"
	"github.com/jorgenskogmo/webpub/internal/tree"
)

// RenderPage is the theme-facing view of a tree node. A full page carries its
// rendered HTML in Content; a lite page has Content empty at every depth and
// only serves navigation.
type RenderPage struct {
	URL      string            `json:"url"`
	Meta     *frontmatter.Meta `json:"meta"`
	Content  string            `json:"content"`
	Type     tree.Type         `json:"type"`
	Parent   *string           `json:"parent"`
	Children []*RenderPage     `json:"children"`
}

// IsList reports whether the page has children.
func (p *RenderPage) IsList() bool { return p.Type == tree.TypeList }

// LiteTree projects a tree node and its descendants into lite pages. The
// result is built once per build and shared by reference between the site view
// and every full page's children.
func LiteTree(n *tree.Node, parent *string) *RenderPage {
	lite := &RenderPage{
		URL:      n.URL,
		Meta:     n.Page.Meta.Clone(),
		Type:     n.Type,
		Parent:   parent,
		Children: make([]*RenderPage, 0, len(n.Children)),
	}
	self := n.URL
	for _, c := range n.Children {
		lite.Children = append(lite.Children, LiteTree(c, &self))
	}
	return lite
}

// indexLite maps every URL in a lite tree to its page.
func indexLite(p *RenderPage, idx map[string]*RenderPage) map[string]*RenderPage {
	idx[p.URL] = p
	for _, c := range p.Children {
		indexLite(c, idx)
	}
	return idx
}
