package access

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/marmos91/dittoacl/pkg/directory"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// ProbeCommand is the hidden CLI subcommand that runs a probe.
const ProbeCommand = "access-probe"

// ExecProber re-executes a binary under the target credentials. The child
// runs `<binary> access-probe --path <path>` and prints a JSON Result.
type ExecProber struct {
	Binary string
}

// NewExecProber creates a prober that re-executes binary, or the running
// executable when binary is empty.
func NewExecProber(binary string) (*ExecProber, error) {
	if binary == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		binary = self
	}
	return &ExecProber{Binary: binary}, nil
}

// Probe implements Prober.
func (p *ExecProber) Probe(ctx context.Context, id *directory.Identity, path string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, ProbeCommand, "--path", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := impersonate(cmd, id); err != nil {
		return Result{}, err
	}

	if err := cmd.Run(); err != nil {
		return Result{}, fserrors.NewExternalToolError(path,
			fmt.Sprintf("access probe as %s failed", id.Username), strings.TrimSpace(stderr.String()), err)
	}

	var res Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return Result{}, fserrors.NewExternalToolError(path, "malformed access probe output", stdout.String(), err)
	}
	return res, nil
}
