package defaults

import (
	"context"
	"fmt"

	"github.com/marmos91/dittoacl/pkg/acl"
)

// DomainHealthy is the directory-service state that upgrades HOME to
// DOMAIN_HOME.
const DomainHealthy = "HEALTHY"

// DomainStateProvider reports the directory-service join state.
type DomainStateProvider interface {
	DomainState(ctx context.Context) (string, error)
}

// GroupResolver resolves group names and share built-in groups to gids.
type GroupResolver interface {
	GroupID(ctx context.Context, name string) (int, error)

	// BuiltinGroupID returns the built-in users group of a share type.
	// ok is false when the share type has none.
	BuiltinGroupID(ctx context.Context, share ShareType) (gid int, ok bool, err error)
}

// Builder resolves templates into entry lists.
type Builder struct {
	domain     DomainStateProvider
	groups     GroupResolver
	adminGroup string
}

// NewBuilder creates a builder. adminGroup may be empty.
func NewBuilder(domain DomainStateProvider, groups GroupResolver, adminGroup string) *Builder {
	return &Builder{domain: domain, groups: groups, adminGroup: adminGroup}
}

// Effective returns the template actually used for name, applying the
// HOME to DOMAIN_HOME upgrade.
func (b *Builder) Effective(ctx context.Context, name Name) (Name, error) {
	if name != Home || b.domain == nil {
		return name, nil
	}
	state, err := b.domain.DomainState(ctx)
	if err != nil {
		return "", fmt.Errorf("query domain state: %w", err)
	}
	if state == DomainHealthy {
		return DomainHome, nil
	}
	return name, nil
}

// Build returns the default ACL for a template and share type: the admin
// group entry first when configured, then the share built-in group entry,
// then the template's fixed entries.
func (b *Builder) Build(ctx context.Context, name Name, share ShareType) ([]acl.ACE, error) {
	if _, ok := catalog[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	if _, err := ParseShareType(string(share)); err != nil {
		return nil, err
	}

	effective, err := b.Effective(ctx, name)
	if err != nil {
		return nil, err
	}

	var entries []acl.ACE

	if b.adminGroup != "" {
		if b.groups == nil {
			return nil, fmt.Errorf("admin group %q configured without a group resolver", b.adminGroup)
		}
		gid, err := b.groups.GroupID(ctx, b.adminGroup)
		if err != nil {
			return nil, fmt.Errorf("resolve admin group %q: %w", b.adminGroup, err)
		}
		entries = append(entries, named(gid, acl.PermFullControl))
	}

	if b.groups != nil {
		gid, ok, err := b.groups.BuiltinGroupID(ctx, share)
		if err != nil {
			return nil, fmt.Errorf("resolve %s built-in group: %w", share, err)
		}
		if ok {
			entries = append(entries, named(gid, acl.PermModify))
		}
	}

	tmpl, _ := Lookup(effective)
	return append(entries, tmpl.Entries...), nil
}

func named(gid int, perms acl.BasicPerm) acl.ACE {
	return acl.ACE{
		Tag:   acl.TagNamed,
		ID:    acl.IntID(gid),
		Type:  acl.TypeAllow,
		Perms: acl.BasicPerms(perms),
		Flags: acl.BasicFlags(acl.FlagInherit),
	}
}
