// Package propagate delegates recursive permission changes to the
// external tree helper. The core only builds the request and interprets
// the exit status; it never walks the subtree itself.
package propagate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// DefaultHelper is the default helper binary.
const DefaultHelper = "/usr/local/bin/winacl"

// Action is the operation the helper applies to every descendant.
type Action string

const (
	// ActionClone copies the ACL of the root onto the subtree.
	ActionClone Action = "clone"

	// ActionStrip removes extended ACLs from the subtree.
	ActionStrip Action = "strip"

	// ActionChown changes ownership only.
	ActionChown Action = "chown"
)

// Request describes one recursive apply.
type Request struct {
	Path     string
	Action   Action
	UID      int
	GID      int
	Traverse bool
}

// Args returns the helper argv (without the binary), rooted at the parent
// directory of Path.
func (r Request) Args() []string {
	recurse := "-r"
	if r.Traverse {
		recurse = "-rx"
	}
	return []string{
		"-a", string(r.Action),
		"-O", strconv.Itoa(r.UID),
		"-G", strconv.Itoa(r.GID),
		recurse,
		"-c", filepath.Dir(r.Path),
		"-p", filepath.Base(r.Path),
	}
}

// Propagator applies a request to a subtree.
type Propagator interface {
	Propagate(ctx context.Context, req Request) error
}

// ExecPropagator runs the helper binary.
type ExecPropagator struct {
	Binary  string
	Timeout time.Duration
}

// NewExecPropagator creates a helper client. Zero timeout means no limit
// beyond the context.
func NewExecPropagator(binary string, timeout time.Duration) *ExecPropagator {
	if binary == "" {
		binary = DefaultHelper
	}
	return &ExecPropagator{Binary: binary, Timeout: timeout}
}

// Propagate runs the helper and fails with ExternalToolFailure, carrying
// the helper's stderr, on a non-zero exit.
func (p *ExecPropagator) Propagate(ctx context.Context, req Request) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, req.Args()...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && detail == "" {
			detail = err.Error()
		}
		return fserrors.NewExternalToolError(req.Path,
			fmt.Sprintf("helper %s on path %s failed", req.Action, req.Path), detail, err)
	}
	return nil
}
