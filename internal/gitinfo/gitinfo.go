// Package gitinfo looks up the last commit time of content files.
package gitinfo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Resolver finds the newest commit touching a file. Opened repositories are
// cached per worktree root.
type Resolver struct {
	mu    sync.Mutex
	repos map[string]*openRepo
}

type openRepo struct {
	repo *git.Repository
	root string
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{repos: map[string]*openRepo{}}
}

// Modified returns the committer time of the newest commit that touched path.
// ok is false when path is not inside a repository or has never been committed.
func (r *Resolver) Modified(path string) (t time.Time, ok bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, false, err
	}
	if resolved, evalErr := filepath.EvalSymlinks(abs); evalErr == nil {
		abs = resolved
	}

	or, err := r.open(filepath.Dir(abs))
	if err != nil || or == nil {
		return time.Time{}, false, err
	}

	rel, err := filepath.Rel(or.root, abs)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("relative path: %w", err)
	}
	name := filepath.ToSlash(rel)

	iter, err := or.repo.Log(&git.LogOptions{FileName: &name})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("git log %s: %w", name, err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		return time.Time{}, false, nil
	}
	return commitTime(commit), true, nil
}

func (r *Resolver) open(dir string) (*openRepo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for root, or := range r.repos {
		if within(root, dir) {
			return or, nil
		}
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories carry no working files
		return nil, nil
	}
	root := wt.Filesystem.Root()
	if resolved, evalErr := filepath.EvalSymlinks(root); evalErr == nil {
		root = resolved
	}
	or := &openRepo{repo: repo, root: root}
	r.repos[root] = or
	return or, nil
}

func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func commitTime(c *object.Commit) time.Time {
	return c.Committer.When
}
