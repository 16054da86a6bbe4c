// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package gitrepo wraps the git porcelain library for the push pipeline:
// HEAD lookup, tracked-file listing, and the changed-file diff between the
// last pushed commit and HEAD. No diffing or tree walking is implemented
// here; it all delegates to go-git.
package gitrepo

import (
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// Repo is an opened git repository.
type Repo struct {
	repo *git.Repository
	path string
}

// Open opens the repository at path.
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("not a valid git repository: %s: %w", path, err)
	}
	return &Repo{repo: r, path: path}, nil
}

// Path returns the repository root the repo was opened with.
func (r *Repo) Path() string { return r.path }

// Head returns the current HEAD commit hash and its message.
func (r *Repo) Head() (hash, message string, err error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return "", "", fmt.Errorf("read HEAD commit: %w", err)
	}
	return ref.Hash().String(), strings.TrimSpace(commit.Message), nil
}

// TrackedFiles returns every file in the HEAD commit's tree, relative to
// the repository root.
func (r *Repo) TrackedFiles() ([]string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read HEAD tree: %w", err)
	}

	var files []string
	err = tree.Files().ForEach(func(f *object.File) error {
		files = append(files, f.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk HEAD tree: %w", err)
	}
	return files, nil
}

// ChangedFiles returns the files that exist in the `to` commit and differ
// from the `from` commit: additions and modifications. Deletions are
// skipped; a push never removes remote files.
func (r *Repo) ChangedFiles(from, to string) ([]string, error) {
	fromTree, err := r.treeAt(from)
	if err != nil {
		return nil, err
	}
	toTree, err := r.treeAt(to)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", short(from), short(to), err)
	}

	var files []string
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, fmt.Errorf("inspect change: %w", err)
		}
		switch action {
		case merkletrie.Insert, merkletrie.Modify:
			files = append(files, change.To.Name)
		case merkletrie.Delete:
			// not pushed
		}
	}
	return files, nil
}

// IsDirty reports whether the worktree has uncommitted changes.
func (r *Repo) IsDirty() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("read worktree status: %w", err)
	}
	return !status.IsClean(), nil
}

func (r *Repo) treeAt(hash string) (*object.Tree, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", short(hash), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", short(hash), err)
	}
	return tree, nil
}

func short(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
