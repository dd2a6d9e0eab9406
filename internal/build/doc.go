// Package build runs the webpub pipeline: resolve theme, load content, build
// the tree, render pages, copy theme assets and write the content manifest.
//
// A Coordinator serializes builds. A request that arrives while a build is
// running is skipped, not queued; the watcher re-triggers on the next change.
package build
