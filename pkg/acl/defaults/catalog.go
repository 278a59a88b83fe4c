// Package defaults holds the catalog of default ACL templates used to seed
// new datasets and shares, and the builder that resolves a template into a
// concrete entry list for a given share type.
package defaults

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/dittoacl/pkg/acl"
)

// ErrUnknownTemplate is returned for a template name not in the catalog.
var ErrUnknownTemplate = errors.New("unknown default ACL template")

// ErrUnknownShareType is returned for an unsupported share type.
var ErrUnknownShareType = errors.New("unknown share type")

// Name identifies a template.
type Name string

const (
	Open       Name = "OPEN"
	Restricted Name = "RESTRICTED"
	Home       Name = "HOME"
	DomainHome Name = "DOMAIN_HOME"
)

// ShareType is the protocol a dataset is shared over.
type ShareType string

const (
	ShareNone ShareType = "NONE"
	ShareAFP  ShareType = "AFP"
	ShareSMB  ShareType = "SMB"
	ShareNFS  ShareType = "NFS"
)

// ParseName parses a template name. Empty means OPEN.
func ParseName(s string) (Name, error) {
	if s == "" {
		return Open, nil
	}
	n := Name(strings.ToUpper(s))
	if _, ok := catalog[n]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
	}
	return n, nil
}

// ParseShareType parses a share type. Empty means NONE.
func ParseShareType(s string) (ShareType, error) {
	if s == "" {
		return ShareNone, nil
	}
	switch st := ShareType(strings.ToUpper(s)); st {
	case ShareNone, ShareAFP, ShareSMB, ShareNFS:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownShareType, s)
	}
}

// Template is an immutable catalog record.
type Template struct {
	Visible bool
	Entries []acl.ACE
}

func special(tag acl.Tag, perms acl.BasicPerm, flags acl.FlagSet) acl.ACE {
	return acl.ACE{Tag: tag, Type: acl.TypeAllow, Perms: acl.BasicPerms(perms), Flags: flags}
}

var (
	inherit   = acl.BasicFlags(acl.FlagInherit)
	noInherit = acl.BasicFlags(acl.FlagNoInherit)
)

// order fixes the listing order of the catalog.
var order = []Name{Open, Restricted, Home, DomainHome}

var catalog = map[Name]Template{
	Open: {Visible: true, Entries: []acl.ACE{
		special(acl.TagOwner, acl.PermFullControl, inherit),
		special(acl.TagGroup, acl.PermFullControl, inherit),
		special(acl.TagEveryone, acl.PermModify, inherit),
	}},
	Restricted: {Visible: true, Entries: []acl.ACE{
		special(acl.TagOwner, acl.PermFullControl, inherit),
		special(acl.TagGroup, acl.PermModify, inherit),
	}},
	Home: {Visible: true, Entries: []acl.ACE{
		special(acl.TagOwner, acl.PermFullControl, inherit),
		special(acl.TagGroup, acl.PermModify, noInherit),
		special(acl.TagEveryone, acl.PermTraverse, noInherit),
	}},
	DomainHome: {Visible: false, Entries: []acl.ACE{
		special(acl.TagOwner, acl.PermFullControl, inherit),
		special(acl.TagGroup, acl.PermModify, acl.AdvancedFlags(acl.FlagBits{
			acl.FlagDirectoryInherit:   true,
			acl.FlagInheritOnly:        true,
			acl.FlagNoPropagateInherit: true,
		})),
		special(acl.TagEveryone, acl.PermTraverse, noInherit),
	}},
}

// Names returns every template name in catalog order.
func Names() []Name {
	out := make([]Name, len(order))
	copy(out, order)
	return out
}

// VisibleNames returns the names offered to users. DOMAIN_HOME is never
// listed; it replaces HOME automatically on domain-joined systems.
func VisibleNames() []Name {
	out := make([]Name, 0, len(order))
	for _, n := range order {
		if catalog[n].Visible {
			out = append(out, n)
		}
	}
	return out
}

// Lookup returns a copy of the named template.
func Lookup(name Name) (Template, bool) {
	t, ok := catalog[name]
	if !ok {
		return Template{}, false
	}
	return Template{Visible: t.Visible, Entries: cloneEntries(t.Entries)}, true
}

func cloneEntries(entries []acl.ACE) []acl.ACE {
	out := make([]acl.ACE, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
