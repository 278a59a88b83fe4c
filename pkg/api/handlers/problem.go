// Package handlers provides HTTP handlers for the dittoacl API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// Problem represents an RFC 7807 "problem details" response.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	// If not set, defaults to "about:blank".
	Type string `json:"type,omitempty"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`

	// Instance is the path the error refers to, when known.
	Instance string `json:"instance,omitempty"`

	// Code is the permission error code, such as "InvalidArgument".
	Code string `json:"code,omitempty"`

	// Errno is the errno equivalent of Code.
	Errno int `json:"errno,omitempty"`

	// Extra carries diagnostic output such as helper stderr.
	Extra string `json:"extra,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem writes an RFC 7807 problem response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblem(w, &Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

func writeProblem(w http.ResponseWriter, problem *Problem) {
	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// BadRequest writes a 400 Bad Request problem response.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadRequest, "Bad Request", detail)
}

// Unauthorized writes a 401 Unauthorized problem response.
func Unauthorized(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// NotFound writes a 404 Not Found problem response.
func NotFound(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusNotFound, "Not Found", detail)
}

// InternalServerError writes a 500 Internal Server Error problem response.
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// StatusFor maps a permission error code onto an HTTP status.
func StatusFor(code fserrors.ErrorCode) int {
	switch code {
	case fserrors.ErrNotFound:
		return http.StatusNotFound
	case fserrors.ErrPermissionDenied:
		return http.StatusForbidden
	case fserrors.ErrInvalidArgument:
		return http.StatusBadRequest
	case fserrors.ErrNotSupported:
		return http.StatusNotImplemented
	case fserrors.ErrExternalTool:
		return http.StatusBadGateway
	case fserrors.ErrBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a problem response. Permission errors keep
// their code, errno and diagnostic detail; anything else is a 500.
func WriteError(w http.ResponseWriter, err error) {
	var pe *fserrors.PermError
	if !errors.As(err, &pe) {
		InternalServerError(w, err.Error())
		return
	}

	status := StatusFor(pe.Code)
	writeProblem(w, &Problem{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   pe.Message,
		Instance: pe.Path,
		Code:     pe.Code.String(),
		Errno:    int(pe.Code.Errno()),
		Extra:    pe.Detail,
	})
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONOK writes a 200 OK JSON response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONAccepted writes a 202 Accepted JSON response.
func WriteJSONAccepted(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusAccepted, data)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSONBody decodes and validates a JSON request body. Returns false
// after writing a 400 when either step fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return true
		}
		BadRequest(w, err.Error())
		return false
	}
	return true
}
