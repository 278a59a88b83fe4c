package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys. Use them consistently so logs can be queried by
// path, principal or job across the API, the CLI and the jobs runner.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Request
	KeyRequestID = "request_id"
	KeyMethod    = "method"
	KeyClientIP  = "client_ip"
	KeySubject   = "subject"
	KeyStatus    = "status"

	// Target
	KeyPath     = "path"
	KeyRealPath = "real_path"
	KeyMode     = "mode"
	KeyUID      = "uid"
	KeyGID      = "gid"
	KeyUsername = "username"

	// ACL
	KeyEntries   = "entries"
	KeyACLType   = "acl_type"
	KeyTemplate  = "template"
	KeyShareType = "share_type"
	KeyTrivial   = "trivial"
	KeyBackend   = "backend"

	// Recursive apply
	KeyAction    = "action"
	KeyRecursive = "recursive"
	KeyTraverse  = "traverse"
	KeyStderr    = "stderr"

	// Jobs
	KeyJobID    = "job_id"
	KeyLock     = "lock"
	KeyProgress = "progress"
	KeyState    = "state"

	// Outcome
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyComponent  = "component"
)

// Path returns an attr for a target path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// RealPath returns an attr for a symlink-resolved path.
func RealPath(p string) slog.Attr {
	return slog.String(KeyRealPath, p)
}

// Mode returns an attr formatting a permission mode in octal.
func Mode(m uint32) slog.Attr {
	return slog.String(KeyMode, fmt.Sprintf("%04o", m))
}

// UID returns an attr for a user id. -1 means unchanged.
func UID(uid int) slog.Attr {
	return slog.Int(KeyUID, uid)
}

// GID returns an attr for a group id. -1 means unchanged.
func GID(gid int) slog.Attr {
	return slog.Int(KeyGID, gid)
}

// Username returns an attr for a username.
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Entries returns an attr for an ACL entry count.
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// Template returns an attr for a default ACL template name.
func Template(name string) slog.Attr {
	return slog.String(KeyTemplate, name)
}

// ShareType returns an attr for a share kind.
func ShareType(kind string) slog.Attr {
	return slog.String(KeyShareType, kind)
}

// Trivial returns an attr reporting whether an ACL is trivial.
func Trivial(v bool) slog.Attr {
	return slog.Bool(KeyTrivial, v)
}

// Backend returns an attr for the permission backend name.
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// Action returns an attr for a recursive helper action.
func Action(a string) slog.Attr {
	return slog.String(KeyAction, a)
}

// Recursive returns an attr for the recursive option.
func Recursive(v bool) slog.Attr {
	return slog.Bool(KeyRecursive, v)
}

// Traverse returns an attr for the traverse option.
func Traverse(v bool) slog.Attr {
	return slog.Bool(KeyTraverse, v)
}

// Stderr returns an attr for captured helper diagnostics.
func Stderr(s string) slog.Attr {
	return slog.String(KeyStderr, s)
}

// JobID returns an attr for a job id.
func JobID(id string) slog.Attr {
	return slog.String(KeyJobID, id)
}

// Lock returns an attr for a named lock.
func Lock(name string) slog.Attr {
	return slog.String(KeyLock, name)
}

// Progress returns an attr for a progress percentage.
func Progress(percent int) slog.Attr {
	return slog.Int(KeyProgress, percent)
}

// State returns an attr for a job or service state.
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// Method returns an attr for an operation name.
func Method(name string) slog.Attr {
	return slog.String(KeyMethod, name)
}

// Status returns an attr for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// DurationMs returns an attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns an attr for err, or an empty attr when err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns an attr for an error code name.
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Component returns an attr naming the emitting subsystem.
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}
