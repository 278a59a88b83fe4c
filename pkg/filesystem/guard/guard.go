// Package guard enforces the path-safety rules shared by every permission
// mutation: the target must exist, must resolve inside the managed
// namespace, and must not be a pool root.
package guard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dittoacl/pkg/directory"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// DefaultRoot is the managed namespace root.
const DefaultRoot = "/mnt"

// Guard validates target paths against a namespace root and the pool list.
type Guard struct {
	root  string
	pools directory.PoolLister
}

// New creates a guard for the given namespace root. A nil pool lister means
// no pool roots are protected beyond the namespace rule.
func New(root string, pools directory.PoolLister) *Guard {
	if root == "" {
		root = DefaultRoot
	}
	return &Guard{root: filepath.Clean(root), pools: pools}
}

// Root returns the namespace root.
func (g *Guard) Root() string {
	return g.root
}

// Exists fails with NotFound when path does not exist.
func (g *Guard) Exists(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return fserrors.NewNotFoundError(path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return nil
}

// ValidatePath checks that path exists, resolves strictly below the
// namespace root, and is not itself a pool mount point.
func (g *Guard) ValidatePath(ctx context.Context, path string) (string, error) {
	if err := g.Exists(path); err != nil {
		return "", err
	}

	real, err := Resolve(path)
	if err != nil {
		return "", err
	}

	if !Within(g.root, real) {
		return "", fserrors.NewPermissionDeniedError(path,
			fmt.Sprintf("changing permissions on paths outside of %s is not permitted", g.root))
	}

	if g.pools == nil {
		return real, nil
	}
	pools, err := g.pools.ListPools(ctx)
	if err != nil {
		return "", fmt.Errorf("list pools: %w", err)
	}
	for _, p := range pools {
		if filepath.Clean(p.Path) == real {
			return "", fserrors.NewPermissionDeniedError(path,
				"changing permissions of root level dataset is not permitted")
		}
	}
	return real, nil
}

// Resolve returns the absolute, symlink-free location of path.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fserrors.NewNotFoundError(path)
		}
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return real, nil
}

// Within reports whether path lies strictly below root. The root itself is
// not within.
func Within(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if root == string(filepath.Separator) {
		return path != root && filepath.IsAbs(path)
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
