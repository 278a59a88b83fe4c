package directory

import (
	"context"
	"strings"
)

// Directory service states.
const (
	StateDisabled = "DISABLED"
	StateHealthy  = "HEALTHY"
	StateFaulted  = "FAULTED"
)

// StaticDomain reports a fixed state, typically from configuration.
type StaticDomain string

// DomainState returns the configured state, DISABLED when empty.
func (s StaticDomain) DomainState(context.Context) (string, error) {
	if s == "" {
		return StateDisabled, nil
	}
	return strings.ToUpper(string(s)), nil
}

// WinbindDomain checks the join state by pinging winbindd with `wbinfo -P`.
type WinbindDomain struct {
	Binary string
	Run    CommandRunner
}

// NewWinbindDomain creates a winbind state checker.
func NewWinbindDomain(binary string) *WinbindDomain {
	if binary == "" {
		binary = "wbinfo"
	}
	return &WinbindDomain{Binary: binary, Run: ExecRunner}
}

// DomainState returns HEALTHY when winbindd answers, FAULTED otherwise.
// A failed ping is a state, not an error.
func (w *WinbindDomain) DomainState(ctx context.Context) (string, error) {
	if _, err := w.Run(ctx, w.Binary, "-P"); err != nil {
		return StateFaulted, nil
	}
	return StateHealthy, nil
}
