package filesystem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/dittoacl/internal/logger"
	"github.com/marmos91/dittoacl/internal/telemetry"
	"github.com/marmos91/dittoacl/pkg/acl"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
	"github.com/marmos91/dittoacl/pkg/filesystem/propagate"
)

// Progress checkpoints.
const (
	progressStart     = 0
	progressRecursive = 10
	progressDone      = 100
)

// SetACL replaces the ACL of req.Path, or strips it when
// req.Options.StripACL is set, then applies ownership. Recursive requests
// clone the result onto the subtree through the helper.
func (s *Service) SetACL(ctx context.Context, req SetACLRequest, progress Progress) (err error) {
	progress = orNoProgress(progress)
	ctx, finish := s.begin(ctx, MethodSetACL, req.Path,
		telemetry.Entries(len(req.Entries)), telemetry.Recursive(req.Options.Recursive))
	defer func() { err = finish(err) }()

	progress.SetProgress(progressStart, "Preparing to set acl.")

	if _, err := s.guard.ValidatePath(ctx, req.Path); err != nil {
		return err
	}
	// Entries and stripacl exclude each other here only; SetPerm strips
	// and then applies the mode.
	if err := acl.ValidateSetOptions(len(req.Entries) > 0, req.Options.StripACL); err != nil {
		s.metrics.ObserveValidationError()
		return fserrors.NewInvalidArgumentError(req.Path, err)
	}

	uid, gid := req.IDs()

	if req.Options.StripACL {
		if err := s.backend.StripACL(ctx, req.Path); err != nil {
			return err
		}
	} else {
		prepared, err := s.codec.Prepare(req.Entries, req.Options.Canonicalize)
		if err != nil {
			s.metrics.ObserveValidationError()
			return fserrors.NewInvalidArgumentError(req.Path, err)
		}
		raw, err := s.codec.EncodeAll(prepared)
		if err != nil {
			return fserrors.NewInvalidArgumentError(req.Path, err)
		}
		if err := s.backend.SetACL(ctx, req.Path, raw); err != nil {
			return err
		}
		logger.DebugCtx(ctx, "acl written", logger.Path(req.Path), logger.Entries(len(raw)))
	}

	if !req.Options.Recursive {
		if req.IsSet() {
			if err := s.backend.Chown(ctx, req.Path, uid, gid); err != nil {
				return err
			}
		}
		progress.SetProgress(progressDone, "Finished setting ACL.")
		return nil
	}

	progress.SetProgress(progressRecursive, fmt.Sprintf("Recursively setting ACL on %s.", req.Path))
	if err := s.propagate(ctx, req.Path, propagate.ActionClone, uid, gid, req.Options.RecursionOptions); err != nil {
		return err
	}
	progress.SetProgress(progressDone, "Finished setting ACL.")
	return nil
}

// SetPerm sets a POSIX mode and ownership on req.Path. A non-trivial ACL
// is only replaced when req.Options.StripACL is set.
func (s *Service) SetPerm(ctx context.Context, req SetPermRequest, progress Progress) (err error) {
	progress = orNoProgress(progress)
	ctx, finish := s.begin(ctx, MethodSetPerm, req.Path, telemetry.Recursive(req.Options.Recursive))
	defer func() { err = finish(err) }()

	progress.SetProgress(progressStart, "Preparing to set permissions.")

	if _, err := s.guard.ValidatePath(ctx, req.Path); err != nil {
		return err
	}

	var (
		mode    uint32
		hasMode = req.Mode != nil
	)
	if hasMode {
		if mode, err = ParseMode(*req.Mode); err != nil {
			s.metrics.ObserveValidationError()
			return fserrors.NewInvalidArgumentError(req.Path, err)
		}
	}

	raw, err := s.backend.GetACL(ctx, req.Path)
	if err != nil {
		return err
	}
	if !acl.IsTrivial(raw) && !req.Options.StripACL {
		return fserrors.NewInvalidArgumentError(req.Path,
			fmt.Errorf("non-trivial ACL present on %s: option stripacl required to change permission", req.Path))
	}

	if err := s.backend.StripACL(ctx, req.Path); err != nil {
		return err
	}
	if hasMode {
		if err := s.backend.Chmod(ctx, req.Path, mode); err != nil {
			return err
		}
		telemetry.SetAttributes(ctx, telemetry.Mode(mode))
	}

	uid, gid := req.IDs()
	if req.IsSet() {
		if err := s.backend.Chown(ctx, req.Path, uid, gid); err != nil {
			return err
		}
	}

	if !req.Options.Recursive {
		progress.SetProgress(progressDone, "Finished setting permissions.")
		return nil
	}

	action := propagate.ActionStrip
	if hasMode {
		action = propagate.ActionClone
	}
	progress.SetProgress(progressRecursive, fmt.Sprintf("Recursively setting permissions on %s.", req.Path))
	if err := s.propagate(ctx, req.Path, action, uid, gid, req.Options.RecursionOptions); err != nil {
		return err
	}
	progress.SetProgress(progressDone, "Finished setting permissions.")
	return nil
}

// Chown changes owner and group of req.Path. Unset fields are left
// unchanged.
func (s *Service) Chown(ctx context.Context, req ChownRequest, progress Progress) (err error) {
	progress = orNoProgress(progress)
	uid, gid := req.IDs()
	ctx, finish := s.begin(ctx, MethodChown, req.Path,
		telemetry.UID(uid), telemetry.GID(gid), telemetry.Recursive(req.Options.Recursive))
	defer func() { err = finish(err) }()

	progress.SetProgress(progressStart, "Preparing to change owner.")

	if _, err := s.guard.ValidatePath(ctx, req.Path); err != nil {
		return err
	}

	if !req.Options.Recursive {
		if req.IsSet() {
			if err := s.backend.Chown(ctx, req.Path, uid, gid); err != nil {
				return err
			}
		}
		progress.SetProgress(progressDone, "Finished changing owner.")
		return nil
	}

	progress.SetProgress(progressRecursive, fmt.Sprintf("Recursively changing owner of %s.", req.Path))
	if err := s.propagate(ctx, req.Path, propagate.ActionChown, uid, gid, req.Options); err != nil {
		return err
	}
	progress.SetProgress(progressDone, "Finished changing owner.")
	return nil
}

// propagate hands a recursive change to the helper.
func (s *Service) propagate(ctx context.Context, path string, action propagate.Action, uid, gid int, opts RecursionOptions) (err error) {
	if s.helper == nil {
		return fserrors.NewNotSupportedError(path, "recursive changes require a propagation helper")
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanHelperPropagate)
	span.SetAttributes(telemetry.Action(string(action)), telemetry.Traverse(opts.Traverse))
	start := time.Now()
	defer func() {
		s.metrics.ObserveHelper(string(action), time.Since(start), err)
		telemetry.End(span, err)
	}()

	logger.InfoCtx(ctx, "delegating recursive change", logger.Path(path),
		logger.Action(string(action)), logger.UID(uid), logger.GID(gid), logger.Traverse(opts.Traverse))

	err = s.helper.Propagate(ctx, propagate.Request{
		Path:     path,
		Action:   action,
		UID:      uid,
		GID:      gid,
		Traverse: opts.Traverse,
	})
	if err != nil {
		var detail string
		var pe *fserrors.PermError
		if errors.As(err, &pe) {
			detail = pe.Detail
		}
		logger.ErrorCtx(ctx, "recursive change failed", logger.Path(path),
			logger.Action(string(action)), logger.Stderr(detail), logger.Err(err))
	}
	return err
}

func orNoProgress(p Progress) Progress {
	if p == nil {
		return NoProgress
	}
	return p
}
