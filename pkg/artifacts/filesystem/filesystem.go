// Package filesystem deletes stage artifacts from a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/marmos91/artifactguard/pkg/artifacts"
)

// Store removes artifacts below Root.
type Store struct {
	root     string
	preserve []string
}

// New creates a store rooted at root.
func New(root string, preserve []string) *Store {
	clean := make([]string, len(preserve))
	for i, p := range preserve {
		clean[i] = path.Clean(p)
	}
	return &Store{root: root, preserve: clean}
}

// Root returns the artifact root directory.
func (s *Store) Root() string { return s.root }

// DeleteStage implements artifacts.Store. Preserved paths and the
// directories leading to them are kept; everything else is removed.
func (s *Store) DeleteStage(ctx context.Context, loc artifacts.Locator) (int64, error) {
	if err := loc.Validate(); err != nil {
		return 0, err
	}
	dir := filepath.Join(s.root, filepath.FromSlash(loc.Path()))
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return s.prune(ctx, dir, "")
}

// prune removes the children of dir that are not preserved. rel is dir's
// slash path relative to the stage directory.
func (s *Store) prune(ctx context.Context, dir, rel string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	var freed int64
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return freed, err
		}

		childRel := e.Name()
		if rel != "" {
			childRel = rel + "/" + e.Name()
		}
		child := filepath.Join(dir, e.Name())

		if artifacts.Preserved(childRel, s.preserve) {
			continue
		}
		if e.IsDir() && s.containsPreserved(childRel) {
			n, err := s.prune(ctx, child, childRel)
			freed += n
			if err != nil {
				return freed, err
			}
			continue
		}

		n, err := treeSize(child)
		if err != nil {
			return freed, err
		}
		if err := os.RemoveAll(child); err != nil {
			return freed, fmt.Errorf("remove %s: %w", child, err)
		}
		freed += n
	}
	return freed, nil
}

// containsPreserved reports whether a preserved path lies below rel.
func (s *Store) containsPreserved(rel string) bool {
	for _, p := range s.preserve {
		if len(p) > len(rel) && p[:len(rel)] == rel && p[len(rel)] == '/' {
			return true
		}
	}
	return false
}

func treeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Healthcheck verifies the root exists and is a directory.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("artifact root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("artifact root %s is not a directory", s.root)
	}
	return nil
}

var _ artifacts.Store = (*Store)(nil)
