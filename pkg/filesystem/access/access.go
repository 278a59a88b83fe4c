// Package access answers whether a user can read, write or execute a path.
//
// The answer comes from the operating system acting as that user: a probe
// process is started with the user's uid, gid and supplementary groups and
// calls access(2) on the path. Comparing ownership and mode bits in-process
// would miss ACL evaluation and group membership changes.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/marmos91/dittoacl/internal/logger"
	"github.com/marmos91/dittoacl/internal/telemetry"
	"github.com/marmos91/dittoacl/pkg/directory"
	"github.com/marmos91/dittoacl/pkg/filesystem"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// Method is the operation name used for spans, metrics and logs.
const Method = "filesystem.can_access_as_user"

// ErrNoFlags is returned when no access flag is requested.
var ErrNoFlags = errors.New("at least one of read, write or execute must be set")

// Flags selects the accesses to check. A true flag requires the access, a
// false flag requires its absence and a nil flag is not checked.
type Flags struct {
	Read    *bool `json:"read,omitempty" yaml:"read,omitempty"`
	Write   *bool `json:"write,omitempty" yaml:"write,omitempty"`
	Execute *bool `json:"execute,omitempty" yaml:"execute,omitempty"`
}

// IsEmpty reports whether no flag is set.
func (f Flags) IsEmpty() bool {
	return f.Read == nil && f.Write == nil && f.Execute == nil
}

// Result is the effective access of an identity on a path.
type Result struct {
	Read    bool `json:"read"`
	Write   bool `json:"write"`
	Execute bool `json:"execute"`
}

// Prober evaluates access to path as identity.
type Prober interface {
	Probe(ctx context.Context, id *directory.Identity, path string) (Result, error)
}

// Evaluate combines a probe result with the requested flags.
func Evaluate(flags Flags, got Result) bool {
	ok := true
	check := func(want *bool, has bool) {
		if want != nil {
			ok = ok && (*want == has)
		}
	}
	check(flags.Read, got.Read)
	check(flags.Write, got.Write)
	check(flags.Execute, got.Execute)
	return ok
}

// Checker resolves users and probes their access.
type Checker struct {
	users   directory.UserLookup
	prober  Prober
	metrics *filesystem.Metrics
}

// NewChecker creates a checker. metrics may be nil.
func NewChecker(users directory.UserLookup, prober Prober, metrics *filesystem.Metrics) *Checker {
	return &Checker{users: users, prober: prober, metrics: metrics}
}

// CanAccess reports whether username has the requested accesses on path.
func (c *Checker) CanAccess(ctx context.Context, username, path string, flags Flags) (ok bool, err error) {
	start := time.Now()
	ctx, span := telemetry.StartOperationSpan(ctx, telemetry.SpanCanAccess, path, telemetry.Username(username))
	defer func() {
		c.metrics.ObserveOperation(Method, time.Since(start), err)
		telemetry.End(span, err)
	}()

	if !filepath.IsAbs(path) {
		return false, fserrors.NewInvalidArgumentError(path, fmt.Errorf("%s: path must be absolute", path))
	}
	if flags.IsEmpty() {
		return false, fserrors.NewInvalidArgumentError(path, ErrNoFlags)
	}
	if _, err := os.Stat(path); err != nil {
		return false, fserrors.NewInvalidArgumentError(path, fmt.Errorf("%s: path does not exist", path))
	}

	id, err := c.users.LookupUser(ctx, username)
	if err != nil {
		if errors.Is(err, directory.ErrUnknownUser) {
			return false, fserrors.NewInvalidArgumentError(path, err)
		}
		return false, err
	}

	got, err := c.prober.Probe(ctx, id, path)
	if err != nil {
		logger.WarnCtx(ctx, "access probe failed", logger.Path(path), logger.Username(username), logger.Err(err))
		return false, err
	}

	ok = Evaluate(flags, got)
	logger.DebugCtx(ctx, "access evaluated", logger.Path(path), logger.Username(username),
		logger.UID(id.UID), logger.GID(id.GID), slog.Bool("allowed", ok))
	return ok, nil
}
