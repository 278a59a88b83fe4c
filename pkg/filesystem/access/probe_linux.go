//go:build linux

package access

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/marmos91/dittoacl/pkg/directory"
)

func impersonate(cmd *exec.Cmd, id *directory.Identity) error {
	groups := make([]uint32, 0, len(id.Groups))
	for _, g := range id.Groups {
		groups = append(groups, uint32(g))
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{
			Uid:    uint32(id.UID),
			Gid:    uint32(id.GID),
			Groups: groups,
		},
	}
	return nil
}

// ProbeSelf checks path with access(2) under the calling process's real
// credentials.
func ProbeSelf(path string) Result {
	return Result{
		Read:    unix.Access(path, unix.R_OK) == nil,
		Write:   unix.Access(path, unix.W_OK) == nil,
		Execute: unix.Access(path, unix.X_OK) == nil,
	}
}
