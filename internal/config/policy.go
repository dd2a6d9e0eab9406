package config

import "strings"

// FrontmatterPolicy decides what happens to a content file whose frontmatter
// fails to parse.
type FrontmatterPolicy string

const (
	// FrontmatterEmpty keeps the page with empty meta and empty content.
	FrontmatterEmpty FrontmatterPolicy = "empty"
	// FrontmatterSkip drops the page from the build.
	FrontmatterSkip FrontmatterPolicy = "skip"
	// FrontmatterFail aborts the load.
	FrontmatterFail FrontmatterPolicy = "fail"
)

// Valid reports whether p is a known policy.
func (p FrontmatterPolicy) Valid() bool {
	switch p {
	case FrontmatterEmpty, FrontmatterSkip, FrontmatterFail:
		return true
	}
	return false
}

// NormalizeFrontmatterPolicy maps user input to a policy, or "" if unknown.
func NormalizeFrontmatterPolicy(raw string) FrontmatterPolicy {
	p := FrontmatterPolicy(strings.ToLower(strings.TrimSpace(raw)))
	if p.Valid() {
		return p
	}
	return ""
}
