// Package directory provides the external collaborators the permission
// operations consult: the pool list that marks mount roots, the directory
// service join state, and user/group identity resolution.
package directory

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Pool is a storage pool mounted under the managed namespace.
type Pool struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// PoolLister lists the pools whose roots must never be modified.
type PoolLister interface {
	ListPools(ctx context.Context) ([]Pool, error)
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec. Stderr is folded into the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// StaticPools is a fixed pool list, typically from configuration.
type StaticPools []Pool

// ListPools returns the configured pools.
func (s StaticPools) ListPools(context.Context) ([]Pool, error) {
	out := make([]Pool, len(s))
	copy(out, s)
	return out, nil
}

// StaticPoolsFromPaths builds a pool list from mount paths, naming each
// pool after its base directory.
func StaticPoolsFromPaths(paths []string) StaticPools {
	pools := make(StaticPools, 0, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		pools = append(pools, Pool{Name: filepath.Base(clean), Path: clean})
	}
	return pools
}

// ZpoolLister queries imported ZFS pools with `zpool list`. Pools are
// mounted at <root>/<name>.
type ZpoolLister struct {
	Binary string
	Root   string
	Run    CommandRunner
}

// NewZpoolLister creates a lister for pools mounted under root.
func NewZpoolLister(binary, root string) *ZpoolLister {
	if binary == "" {
		binary = "zpool"
	}
	return &ZpoolLister{Binary: binary, Root: root, Run: ExecRunner}
}

// ListPools runs `zpool list -H -o name` and maps names onto mount paths.
func (z *ZpoolLister) ListPools(ctx context.Context) ([]Pool, error) {
	out, err := z.Run(ctx, z.Binary, "list", "-H", "-o", "name")
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}

	var pools []Pool
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" || name == "boot-pool" || name == "freenas-boot" {
			continue
		}
		pools = append(pools, Pool{Name: name, Path: filepath.Join(z.Root, name)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse zpool output: %w", err)
	}
	return pools, nil
}
