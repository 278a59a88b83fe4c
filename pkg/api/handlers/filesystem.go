package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/marmos91/dittoacl/pkg/filesystem"
	"github.com/marmos91/dittoacl/pkg/filesystem/access"
	"github.com/marmos91/dittoacl/pkg/job"
)

// FilesystemHandler serves the permission operations.
//
// Mutations run as jobs holding the permission lock. By default they are
// submitted in the background and answered with 202 and the RUNNING job;
// with ?wait=true they run to completion and answer with the finished job
// or the operation's error.
type FilesystemHandler struct {
	svc     *filesystem.Service
	runner  *job.Runner
	checker *access.Checker
}

// NewFilesystemHandler creates a filesystem handler. checker may be nil,
// in which case can_access_as_user answers 501.
func NewFilesystemHandler(svc *filesystem.Service, runner *job.Runner, checker *access.Checker) *FilesystemHandler {
	return &FilesystemHandler{svc: svc, runner: runner, checker: checker}
}

// GetACLRequest is the body of POST /filesystem/getacl. Simplified
// defaults to true when omitted.
type GetACLRequest struct {
	Path       string `json:"path" validate:"required"`
	Simplified bool   `json:"simplified"`
}

// PathRequest is a body carrying only a path.
type PathRequest struct {
	Path string `json:"path" validate:"required"`
}

// DefaultACLRequest is the body of POST /filesystem/get_default_acl.
type DefaultACLRequest struct {
	ACLType   string `json:"acl_type"`
	ShareType string `json:"share_type"`
}

// CanAccessRequest is the body of POST /filesystem/can_access_as_user.
type CanAccessRequest struct {
	Username    string       `json:"username" validate:"required"`
	Path        string       `json:"path" validate:"required"`
	Permissions access.Flags `json:"permissions"`
}

// TrivialResponse answers acl_is_trivial.
type TrivialResponse struct {
	Path    string `json:"path"`
	Trivial bool   `json:"trivial"`
}

// CanAccessResponse answers can_access_as_user.
type CanAccessResponse struct {
	Allowed bool `json:"allowed"`
}

// GetACL handles POST /filesystem/getacl.
func (h *FilesystemHandler) GetACL(w http.ResponseWriter, r *http.Request) {
	req := GetACLRequest{Simplified: true}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.svc.GetACL(r.Context(), req.Path, req.Simplified)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSONOK(w, result)
}

// SetACL handles POST /filesystem/setacl.
func (h *FilesystemHandler) SetACL(w http.ResponseWriter, r *http.Request) {
	req := filesystem.NewSetACLRequest("")
	if !decodeJSONBody(w, r, &req) {
		return
	}

	h.dispatch(w, r, filesystem.MethodSetACL, req.Path, func(ctx context.Context, progress job.Reporter) error {
		return h.svc.SetACL(ctx, req, progress)
	})
}

// SetPerm handles POST /filesystem/setperm.
func (h *FilesystemHandler) SetPerm(w http.ResponseWriter, r *http.Request) {
	var req filesystem.SetPermRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	h.dispatch(w, r, filesystem.MethodSetPerm, req.Path, func(ctx context.Context, progress job.Reporter) error {
		return h.svc.SetPerm(ctx, req, progress)
	})
}

// Chown handles POST /filesystem/chown.
func (h *FilesystemHandler) Chown(w http.ResponseWriter, r *http.Request) {
	var req filesystem.ChownRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	h.dispatch(w, r, filesystem.MethodChown, req.Path, func(ctx context.Context, progress job.Reporter) error {
		return h.svc.Chown(ctx, req, progress)
	})
}

// ACLIsTrivial handles POST /filesystem/acl_is_trivial.
func (h *FilesystemHandler) ACLIsTrivial(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	trivial, err := h.svc.ACLIsTrivial(r.Context(), req.Path)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSONOK(w, TrivialResponse{Path: req.Path, Trivial: trivial})
}

// DefaultACLChoices handles GET /filesystem/default_acl_choices.
func (h *FilesystemHandler) DefaultACLChoices(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, h.svc.DefaultACLChoices())
}

// DefaultACL handles POST /filesystem/get_default_acl.
func (h *FilesystemHandler) DefaultACL(w http.ResponseWriter, r *http.Request) {
	var req DefaultACLRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	entries, err := h.svc.DefaultACL(r.Context(), req.ACLType, req.ShareType)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSONOK(w, entries)
}

// CanAccess handles POST /filesystem/can_access_as_user.
func (h *FilesystemHandler) CanAccess(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		WriteProblem(w, http.StatusNotImplemented, "Not Implemented", "access checks are not configured")
		return
	}

	var req CanAccessRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	allowed, err := h.checker.CanAccess(r.Context(), req.Username, req.Path, req.Permissions)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSONOK(w, CanAccessResponse{Allowed: allowed})
}

func (h *FilesystemHandler) dispatch(w http.ResponseWriter, r *http.Request, method, path string, fn job.Func) {
	spec := job.Spec{Method: method, Path: path, Lock: job.PermChangeLock}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		j, err := h.runner.Run(r.Context(), spec, fn)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSONOK(w, j)
		return
	}

	j, err := h.runner.Submit(r.Context(), spec, fn)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSONAccepted(w, j)
}
