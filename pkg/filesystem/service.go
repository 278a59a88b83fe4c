// Package filesystem implements the permission apply pipeline: reading
// ACLs, writing ACLs, setting POSIX modes and ownership, and handing
// recursive changes to the tree helper.
//
// Every mutation follows the same sequence and stops at the first failure:
//
//	validate path -> validate payload -> strip or canonicalize+lock
//	  -> apply to the object -> delegate recursion -> report progress
package filesystem

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/marmos91/dittoacl/internal/logger"
	"github.com/marmos91/dittoacl/internal/telemetry"
	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/acl/defaults"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
	"github.com/marmos91/dittoacl/pkg/filesystem/guard"
	"github.com/marmos91/dittoacl/pkg/filesystem/propagate"
)

// Method names, used for spans, metrics, logs and job records.
const (
	MethodGetACL       = "filesystem.getacl"
	MethodSetACL       = "filesystem.setacl"
	MethodSetPerm      = "filesystem.setperm"
	MethodChown        = "filesystem.chown"
	MethodACLIsTrivial = "filesystem.acl_is_trivial"
	MethodDefaultACL   = "filesystem.get_default_acl"
)

// Deps are the collaborators of a Service.
type Deps struct {
	Codec     *acl.Codec
	Guard     *guard.Guard
	Backend   backend.Backend
	Helper    propagate.Propagator
	Templates *defaults.Builder
	Metrics   *Metrics
}

// Service runs permission operations against a backend.
type Service struct {
	codec     *acl.Codec
	guard     *guard.Guard
	backend   backend.Backend
	helper    propagate.Propagator
	templates *defaults.Builder
	metrics   *Metrics
}

// New creates a service. Codec defaults to the NFSv4 dialect and Guard to
// the default namespace root with no protected pools.
func New(deps Deps) *Service {
	s := &Service{
		codec:     deps.Codec,
		guard:     deps.Guard,
		backend:   deps.Backend,
		helper:    deps.Helper,
		templates: deps.Templates,
		metrics:   deps.Metrics,
	}
	if s.codec == nil {
		s.codec = acl.NewCodec(nil)
	}
	if s.guard == nil {
		s.guard = guard.New(guard.DefaultRoot, nil)
	}
	if s.templates == nil {
		s.templates = defaults.NewBuilder(nil, nil, "")
	}
	return s
}

// Codec returns the codec used for entry conversion.
func (s *Service) Codec() *acl.Codec {
	return s.codec
}

// GetACL returns the ACL and ownership of path. When simplified, each
// entry's perms and flags are reported as basic levels where one matches
// exactly. The zero-permission everyone@ marker is never reported.
func (s *Service) GetACL(ctx context.Context, path string, simplified bool) (result *acl.ACL, err error) {
	ctx, finish := s.begin(ctx, MethodGetACL, path, attribute.Bool("acl.simplified", simplified))
	defer func() { err = finish(err) }()

	if err := s.guard.Exists(path); err != nil {
		return nil, err
	}

	raw, err := s.backend.GetACL(ctx, path)
	if err != nil {
		return nil, err
	}
	st, err := s.backend.Stat(ctx, path)
	if err != nil {
		return nil, err
	}

	result = &acl.ACL{
		UID:     st.UID,
		GID:     st.GID,
		Type:    s.codec.Dialect().Type(),
		Entries: make([]acl.ACE, 0, len(raw)),
	}
	for _, r := range raw {
		e := s.codec.Decode(r)
		if s.isMarker(e) {
			continue
		}
		if simplified {
			if e, err = s.codec.Simplify(e); err != nil {
				return nil, err
			}
		}
		result.Entries = append(result.Entries, e)
	}

	logger.DebugCtx(ctx, "acl read", logger.Path(path), logger.Entries(len(result.Entries)))
	return result, nil
}

// isMarker reports whether e is a zero-permission everyone@ entry, of
// either type, which is hidden from callers.
func (s *Service) isMarker(e acl.ACE) bool {
	return e.Tag == acl.TagEveryone && s.codec.ToBasicPerms(e.Perms.Bits) == acl.PermNone
}

// ACLIsTrivial reports whether the ACL of path is expressible as a mode.
func (s *Service) ACLIsTrivial(ctx context.Context, path string) (trivial bool, err error) {
	ctx, finish := s.begin(ctx, MethodACLIsTrivial, path)
	defer func() { err = finish(err) }()

	if err := s.guard.Exists(path); err != nil {
		return false, err
	}
	raw, err := s.backend.GetACL(ctx, path)
	if err != nil {
		return false, err
	}
	trivial = acl.IsTrivial(raw)
	telemetry.SetAttributes(ctx, telemetry.Trivial(trivial))
	return trivial, nil
}

// DefaultACLChoices lists the selectable default ACL templates.
func (s *Service) DefaultACLChoices() []string {
	names := defaults.VisibleNames()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

// DefaultACL builds the default ACL for a template name and share type.
// Empty values select OPEN and NONE.
func (s *Service) DefaultACL(ctx context.Context, aclType, shareType string) (entries []acl.ACE, err error) {
	ctx, finish := s.begin(ctx, MethodDefaultACL, "",
		telemetry.Template(aclType), telemetry.ShareType(shareType))
	defer func() { err = finish(err) }()

	name, err := defaults.ParseName(aclType)
	if err != nil {
		return nil, fserrors.NewInvalidArgumentError("", err)
	}
	share, err := defaults.ParseShareType(shareType)
	if err != nil {
		return nil, fserrors.NewInvalidArgumentError("", err)
	}
	return s.templates.Build(ctx, name, share)
}

// begin opens the span and the debug log of an operation. The returned
// function closes both, records metrics and returns err unchanged.
func (s *Service) begin(ctx context.Context, method, path string, attrs ...attribute.KeyValue) (context.Context, func(error) error) {
	start := time.Now()
	ctx, span := telemetry.StartOperationSpan(ctx, method, path,
		append(attrs, telemetry.Backend(s.backendName()))...)
	logger.DebugCtx(ctx, "operation started", logger.Method(method), logger.Path(path))

	return ctx, func(err error) error {
		elapsed := time.Since(start)
		s.metrics.ObserveOperation(method, elapsed, err)

		ms := logger.DurationMs(float64(elapsed.Microseconds()) / 1000.0)
		switch code := fserrors.CodeOf(err); {
		case err == nil:
			logger.DebugCtx(ctx, "operation finished", logger.Method(method), logger.Path(path), ms)
		case code == fserrors.ErrExternalTool || code == 0:
			logger.ErrorCtx(ctx, "operation failed", logger.Method(method), logger.Path(path), ms, logger.Err(err))
		default:
			logger.WarnCtx(ctx, "operation rejected", logger.Method(method), logger.Path(path),
				logger.ErrorCode(code.String()), logger.Err(err))
		}

		if code := fserrors.CodeOf(err); code != 0 {
			span.SetAttributes(telemetry.ErrorCode(code.String()))
		}
		telemetry.End(span, err)
		return err
	}
}

func (s *Service) backendName() string {
	if s.backend == nil {
		return "none"
	}
	return s.backend.Name()
}
