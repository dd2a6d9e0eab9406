// Package content discovers index.md files under a content root and parses
// them into a flat URL to Page structure.
//
// The URL of a page is the directory of its index file relative to the root,
// bounded by slashes (`/a/b/`). The content root itself maps to RootURL.
// Pages are created once per build and never mutated afterwards.
package content
