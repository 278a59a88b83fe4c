//go:build !linux

package access

import (
	"os/exec"

	"github.com/marmos91/dittoacl/pkg/directory"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

func impersonate(cmd *exec.Cmd, _ *directory.Identity) error {
	return fserrors.NewNotSupportedError(cmd.Path, "impersonated access checks require linux")
}

// ProbeSelf is unavailable on this platform and reports no access.
func ProbeSelf(string) Result {
	return Result{}
}
