package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/marmos91/dittoacl/pkg/api/handlers"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// APIError represents an error response that carries no permission error
// code, such as an authentication failure or a malformed request.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if this is a not found error.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsConflict returns true if this is a conflict error.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// decodeError turns an error response into an error. Problems carrying a
// permission error code come back as *fserrors.PermError so callers can
// branch on the code as they would locally.
func decodeError(status int, body []byte) error {
	var p handlers.Problem
	if err := json.Unmarshal(body, &p); err != nil || p.Title == "" {
		return &APIError{StatusCode: status, Title: http.StatusText(status), Detail: string(body)}
	}

	if code := fserrors.ParseErrorCode(p.Code); code != 0 {
		return &fserrors.PermError{
			Code:    code,
			Message: p.Detail,
			Path:    p.Instance,
			Detail:  p.Extra,
		}
	}
	return &APIError{StatusCode: status, Title: p.Title, Detail: p.Detail}
}
