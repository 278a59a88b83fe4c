// Package errors provides the error taxonomy of the filesystem permission
// operations. It is a leaf package so that the guard, backends, helper
// client and transport layers can share codes without import cycles.
package errors

import (
	goerrors "errors"
	"fmt"
	"syscall"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrNotFound indicates the target path does not exist.
	ErrNotFound ErrorCode = iota + 1

	// ErrPermissionDenied indicates the path is outside the managed
	// namespace or is a pool root.
	ErrPermissionDenied

	// ErrInvalidArgument indicates a malformed request or ACL.
	ErrInvalidArgument

	// ErrNotSupported indicates ACLs are unavailable on this platform or
	// filesystem.
	ErrNotSupported

	// ErrExternalTool indicates the propagation helper or an OS apply call
	// failed.
	ErrExternalTool

	// ErrBusy indicates the permission lock is held by another operation.
	ErrBusy
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrNotFound:
		return "NotFound"
	case ErrPermissionDenied:
		return "PermissionDenied"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrNotSupported:
		return "UnsupportedOperation"
	case ErrExternalTool:
		return "ExternalToolFailure"
	case ErrBusy:
		return "Busy"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// Errno maps the code onto the errno reported to CLI callers.
func (e ErrorCode) Errno() syscall.Errno {
	switch e {
	case ErrNotFound:
		return syscall.ENOENT
	case ErrPermissionDenied:
		return syscall.EPERM
	case ErrInvalidArgument:
		return syscall.EINVAL
	case ErrNotSupported:
		return syscall.EOPNOTSUPP
	case ErrBusy:
		return syscall.EBUSY
	default:
		return syscall.EFAULT
	}
}

// PermError is a permission operation error with an error code.
type PermError struct {
	Code    ErrorCode
	Message string
	Path    string

	// Detail carries diagnostic output, such as helper stderr.
	Detail string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *PermError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path: %s)", msg, e.Path)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: [%s]", msg, e.Detail)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *PermError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a NotFound error.
func NewNotFoundError(path string) *PermError {
	return &PermError{
		Code:    ErrNotFound,
		Message: "path not found",
		Path:    path,
	}
}

// NewPermissionDeniedError creates a PermissionDenied error.
func NewPermissionDeniedError(path, reason string) *PermError {
	return &PermError{
		Code:    ErrPermissionDenied,
		Message: reason,
		Path:    path,
	}
}

// NewInvalidArgumentError creates an InvalidArgument error wrapping cause.
func NewInvalidArgumentError(path string, cause error) *PermError {
	return &PermError{
		Code:    ErrInvalidArgument,
		Message: cause.Error(),
		Path:    path,
		Err:     cause,
	}
}

// NewNotSupportedError creates a NotSupported error.
func NewNotSupportedError(path, reason string) *PermError {
	return &PermError{
		Code:    ErrNotSupported,
		Message: reason,
		Path:    path,
	}
}

// NewExternalToolError creates an ExternalToolFailure error carrying the
// tool's diagnostic output.
func NewExternalToolError(path, message, detail string, cause error) *PermError {
	return &PermError{
		Code:    ErrExternalTool,
		Message: message,
		Path:    path,
		Detail:  detail,
		Err:     cause,
	}
}

// NewBusyError creates a Busy error for a held lock.
func NewBusyError(lock string) *PermError {
	return &PermError{
		Code:    ErrBusy,
		Message: fmt.Sprintf("lock %q is held by another operation", lock),
	}
}

// CodeOf returns the code of the first PermError in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var pe *PermError
	if goerrors.As(err, &pe) {
		return pe.Code
	}
	return 0
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ParseErrorCode is the inverse of ErrorCode.String. It returns 0 for an
// unknown name.
func ParseErrorCode(name string) ErrorCode {
	for c := ErrNotFound; c <= ErrBusy; c++ {
		if c.String() == name {
			return c
		}
	}
	return 0
}
