package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TreeReader reads committed files without touching the working tree
type TreeReader interface {
	// ReadFile returns the content of path and whether it exists
	ReadFile(path string) (string, bool, error)

	// ListFiles returns the names of regular files directly inside dir, sorted
	ListFiles(dir string) ([]string, error)
}

// HeadTree reads files from the tree of the HEAD commit
type HeadTree struct {
	tree *object.Tree
}

// emptyHeadTree is returned for repositories without commits
type emptyHeadTree struct{}

func (emptyHeadTree) ReadFile(string) (string, bool, error) { return "", false, nil }
func (emptyHeadTree) ListFiles(string) ([]string, error)    { return nil, nil }

// OpenHeadTree opens the repository containing dir and resolves HEAD's tree.
// A repository with no commits yields a reader that finds nothing.
func OpenHeadTree(dir string) (TreeReader, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return emptyHeadTree{}, nil
		}
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD tree: %w", err)
	}

	return &HeadTree{tree: tree}, nil
}

// ReadFile returns the content of path and whether it exists
func (h *HeadTree) ReadFile(path string) (string, bool, error) {
	entry, err := h.tree.FindEntry(path)
	if err != nil || !entry.Mode.IsFile() {
		return "", false, nil
	}

	file, err := h.tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content, err := file.Contents()
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, true, nil
}

// ListFiles returns the names of regular files directly inside dir, sorted
func (h *HeadTree) ListFiles(dir string) ([]string, error) {
	sub, err := h.tree.Tree(dir)
	if err != nil {
		if errors.Is(err, object.ErrDirectoryNotFound) || errors.Is(err, object.ErrEntryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	// Tree entries are stored in name order
	for _, entry := range sub.Entries {
		if entry.Mode.IsFile() {
			names = append(names, entry.Name)
		}
	}
	return names, nil
}
