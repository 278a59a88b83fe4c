package directory

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"strconv"

	"github.com/marmos91/dittoacl/pkg/acl/defaults"
	"github.com/marmos91/dittoacl/pkg/auth/sid"
)

// ErrUnknownUser is returned when a username cannot be resolved.
var ErrUnknownUser = errors.New("unknown user")

// ErrUnknownGroup is returned when a group name cannot be resolved.
var ErrUnknownGroup = errors.New("unknown group")

// Identity is the credential set of a user.
type Identity struct {
	Username string `json:"username"`
	UID      int    `json:"uid"`
	GID      int    `json:"gid"`
	Groups   []int  `json:"groups"`
}

// UserLookup resolves usernames to credentials.
type UserLookup interface {
	LookupUser(ctx context.Context, username string) (*Identity, error)
}

// Resolver resolves users and groups through the system name service.
type Resolver struct{}

// NewResolver creates a name-service backed resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// LookupUser returns the uid, primary gid and supplementary groups of username.
func (r *Resolver) LookupUser(_ context.Context, username string) (*Identity, error) {
	u, err := user.Lookup(username)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, username)
		}
		return nil, fmt.Errorf("lookup user %s: %w", username, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, fmt.Errorf("user %s has non-numeric uid %q", username, u.Uid)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, fmt.Errorf("user %s has non-numeric gid %q", username, u.Gid)
	}

	id := &Identity{Username: username, UID: uid, GID: gid}

	groupIDs, err := u.GroupIds()
	if err != nil {
		return nil, fmt.Errorf("list groups of %s: %w", username, err)
	}
	for _, g := range groupIDs {
		n, err := strconv.Atoi(g)
		if err != nil {
			continue
		}
		id.Groups = append(id.Groups, n)
	}
	return id, nil
}

// GroupID resolves a group name, or a numeric gid string, to a gid.
func (r *Resolver) GroupID(_ context.Context, name string) (int, error) {
	if gid, err := strconv.Atoi(name); err == nil {
		return gid, nil
	}
	g, err := user.LookupGroup(name)
	if err != nil {
		var unknown user.UnknownGroupError
		if errors.As(err, &unknown) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownGroup, name)
		}
		return 0, fmt.Errorf("lookup group %s: %w", name, err)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, fmt.Errorf("group %s has non-numeric gid %q", name, g.Gid)
	}
	return gid, nil
}

// BuiltinGroupID returns the BUILTIN\Users gid for SMB shares. Other share
// types have no built-in group.
func (r *Resolver) BuiltinGroupID(_ context.Context, share defaults.ShareType) (int, bool, error) {
	if share != defaults.ShareSMB {
		return 0, false, nil
	}
	gid, ok := sid.BuiltinGID(sid.WellKnownUsers)
	if !ok {
		return 0, false, fmt.Errorf("no gid mapping for %s", sid.WellKnownUsers)
	}
	return gid, true, nil
}
