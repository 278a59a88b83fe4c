package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/dittoacl/internal/logger"
)

// Attribute keys for permission operations.
const (
	AttrMethod    = "acl.method"
	AttrPath      = "fs.path"
	AttrRealPath  = "fs.real_path"
	AttrMode      = "fs.mode"
	AttrUID       = "user.uid"
	AttrGID       = "user.gid"
	AttrUsername  = "user.name"
	AttrEntries   = "acl.entries"
	AttrTrivial   = "acl.trivial"
	AttrTemplate  = "acl.template"
	AttrShareType = "acl.share_type"
	AttrBackend   = "acl.backend"
	AttrRecursive = "acl.recursive"
	AttrTraverse  = "acl.traverse"
	AttrAction    = "helper.action"
	AttrJobID     = "job.id"
	AttrLock      = "job.lock"
	AttrErrorCode = "error.code"
)

// Span names. Format: <component>.<operation>
const (
	SpanGetACL          = "filesystem.getacl"
	SpanSetACL          = "filesystem.setacl"
	SpanSetPerm         = "filesystem.setperm"
	SpanChown           = "filesystem.chown"
	SpanACLIsTrivial    = "filesystem.acl_is_trivial"
	SpanDefaultACL      = "filesystem.get_default_acl"
	SpanCanAccess       = "filesystem.can_access_as_user"
	SpanValidatePath    = "guard.validate_path"
	SpanBackendApply    = "backend.apply"
	SpanHelperPropagate = "helper.propagate"
	SpanJobRun          = "job.run"
)

// Method returns an attribute for the operation name.
func Method(name string) attribute.KeyValue {
	return attribute.String(AttrMethod, name)
}

// Path returns an attribute for a target path.
func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

// RealPath returns an attribute for a resolved path.
func RealPath(p string) attribute.KeyValue {
	return attribute.String(AttrRealPath, p)
}

// Mode returns an attribute for a permission mode in octal.
func Mode(m uint32) attribute.KeyValue {
	return attribute.String(AttrMode, fmt.Sprintf("%04o", m))
}

// UID returns an attribute for a user id; -1 means unchanged.
func UID(uid int) attribute.KeyValue {
	return attribute.Int(AttrUID, uid)
}

// GID returns an attribute for a group id; -1 means unchanged.
func GID(gid int) attribute.KeyValue {
	return attribute.Int(AttrGID, gid)
}

// Username returns an attribute for a username.
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// Entries returns an attribute for an ACL entry count.
func Entries(n int) attribute.KeyValue {
	return attribute.Int(AttrEntries, n)
}

// Trivial returns an attribute reporting ACL triviality.
func Trivial(v bool) attribute.KeyValue {
	return attribute.Bool(AttrTrivial, v)
}

// Template returns an attribute for a default ACL template.
func Template(name string) attribute.KeyValue {
	return attribute.String(AttrTemplate, name)
}

// ShareType returns an attribute for a share kind.
func ShareType(kind string) attribute.KeyValue {
	return attribute.String(AttrShareType, kind)
}

// Backend returns an attribute for the permission backend.
func Backend(name string) attribute.KeyValue {
	return attribute.String(AttrBackend, name)
}

// Recursive returns an attribute for the recursive option.
func Recursive(v bool) attribute.KeyValue {
	return attribute.Bool(AttrRecursive, v)
}

// Traverse returns an attribute for the traverse option.
func Traverse(v bool) attribute.KeyValue {
	return attribute.Bool(AttrTraverse, v)
}

// Action returns an attribute for a helper action.
func Action(a string) attribute.KeyValue {
	return attribute.String(AttrAction, a)
}

// JobID returns an attribute for a job id.
func JobID(id string) attribute.KeyValue {
	return attribute.String(AttrJobID, id)
}

// Lock returns an attribute for a named lock.
func Lock(name string) attribute.KeyValue {
	return attribute.String(AttrLock, name)
}

// ErrorCode returns an attribute for an error code name.
func ErrorCode(code string) attribute.KeyValue {
	return attribute.String(AttrErrorCode, code)
}

// StartOperationSpan starts the root span of a permission operation on
// path and mirrors the trace ids into the request's LogContext.
func StartOperationSpan(ctx context.Context, name, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+2)
	all = append(all, Method(name))
	if path != "" {
		all = append(all, Path(path))
	}
	all = append(all, attrs...)

	ctx, span := StartSpan(ctx, name, trace.WithAttributes(all...))
	return WithLogContext(ctx), span
}

// WithLogContext copies the active trace and span ids into the
// LogContext of ctx, cloning it so parents are unaffected.
func WithLogContext(ctx context.Context) context.Context {
	traceID, spanID := TraceID(ctx), SpanID(ctx)
	if traceID == "" {
		return ctx
	}
	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = &logger.LogContext{}
	}
	return logger.WithContext(ctx, lc.WithTrace(traceID, spanID))
}

// End records err, if any, and ends span.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
