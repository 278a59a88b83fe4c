package acl

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Perm names a single permission bit.
type Perm string

const (
	PermReadData        Perm = "READ_DATA"
	PermWriteData       Perm = "WRITE_DATA"
	PermAppendData      Perm = "APPEND_DATA"
	PermReadNamedAttrs  Perm = "READ_NAMED_ATTRS"
	PermWriteNamedAttrs Perm = "WRITE_NAMED_ATTRS"
	PermExecute         Perm = "EXECUTE"
	PermDeleteChild     Perm = "DELETE_CHILD"
	PermReadAttributes  Perm = "READ_ATTRIBUTES"
	PermWriteAttributes Perm = "WRITE_ATTRIBUTES"
	PermDelete          Perm = "DELETE"
	PermReadACL         Perm = "READ_ACL"
	PermWriteACL        Perm = "WRITE_ACL"
	PermWriteOwner      Perm = "WRITE_OWNER"
	PermSynchronize     Perm = "SYNCHRONIZE"
)

// Flag names a single inheritance flag bit.
type Flag string

const (
	FlagFileInherit        Flag = "FILE_INHERIT"
	FlagDirectoryInherit   Flag = "DIRECTORY_INHERIT"
	FlagNoPropagateInherit Flag = "NO_PROPAGATE_INHERIT"
	FlagInheritOnly        Flag = "INHERIT_ONLY"
	FlagInherited          Flag = "INHERITED"
)

// BasicPerm is a named permission level.
type BasicPerm string

const (
	PermNone        BasicPerm = "NOPERMS"
	PermFullControl BasicPerm = "FULL_CONTROL"
	PermModify      BasicPerm = "MODIFY"
	PermRead        BasicPerm = "READ"
	PermTraverse    BasicPerm = "TRAVERSE"
	PermOther       BasicPerm = "OTHER"
)

// BasicFlag is a named inheritance level.
type BasicFlag string

const (
	FlagNoInherit BasicFlag = "NOINHERIT"
	FlagInherit   BasicFlag = "INHERIT"
	FlagOther     BasicFlag = "OTHER"
)

// basicKey is the field carrying a basic level in the wire form.
const basicKey = "BASIC"

// PermBits is the advanced form of a permission set. Missing names are false.
type PermBits map[Perm]bool

// FlagBits is the advanced form of a flag set. Missing names are false.
type FlagBits map[Flag]bool

// String lists the set names in sorted order.
func (b PermBits) String() string {
	names := make([]string, 0, len(b))
	for k, v := range b {
		if v {
			names = append(names, string(k))
		}
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// String lists the set names in sorted order.
func (b FlagBits) String() string {
	names := make([]string, 0, len(b))
	for k, v := range b {
		if v {
			names = append(names, string(k))
		}
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// PermSet holds either a basic level or advanced bits, never both.
type PermSet struct {
	Basic BasicPerm
	Bits  PermBits
}

// FlagSet holds either a basic level or advanced bits, never both.
type FlagSet struct {
	Basic BasicFlag
	Bits  FlagBits
}

// BasicPerms wraps a basic permission level.
func BasicPerms(level BasicPerm) PermSet {
	return PermSet{Basic: level}
}

// AdvancedPerms wraps advanced permission bits.
func AdvancedPerms(bits PermBits) PermSet {
	return PermSet{Bits: bits}
}

// BasicFlags wraps a basic flag level.
func BasicFlags(level BasicFlag) FlagSet {
	return FlagSet{Basic: level}
}

// AdvancedFlags wraps advanced flag bits.
func AdvancedFlags(bits FlagBits) FlagSet {
	return FlagSet{Bits: bits}
}

// IsBasic reports whether the set carries a basic level.
func (p PermSet) IsBasic() bool { return p.Basic != "" }

// IsBasic reports whether the set carries a basic level.
func (f FlagSet) IsBasic() bool { return f.Basic != "" }

// Clone returns a deep copy.
func (p PermSet) Clone() PermSet {
	if p.Bits == nil {
		return p
	}
	bits := make(PermBits, len(p.Bits))
	for k, v := range p.Bits {
		bits[k] = v
	}
	return PermSet{Basic: p.Basic, Bits: bits}
}

// Clone returns a deep copy.
func (f FlagSet) Clone() FlagSet {
	if f.Bits == nil {
		return f
	}
	bits := make(FlagBits, len(f.Bits))
	for k, v := range f.Bits {
		bits[k] = v
	}
	return FlagSet{Basic: f.Basic, Bits: bits}
}

// String renders the level name, or the set bits for advanced sets.
func (p PermSet) String() string {
	if p.IsBasic() {
		return string(p.Basic)
	}
	return p.Bits.String()
}

// String renders the level name, or the set bits for advanced sets.
func (f FlagSet) String() string {
	if f.IsBasic() {
		return string(f.Basic)
	}
	return f.Bits.String()
}

func (p PermSet) fields() map[string]any {
	if p.IsBasic() {
		return map[string]any{basicKey: string(p.Basic)}
	}
	out := make(map[string]any, len(p.Bits))
	for k, v := range p.Bits {
		out[string(k)] = v
	}
	return out
}

func (f FlagSet) fields() map[string]any {
	if f.IsBasic() {
		return map[string]any{basicKey: string(f.Basic)}
	}
	out := make(map[string]any, len(f.Bits))
	for k, v := range f.Bits {
		out[string(k)] = v
	}
	return out
}

// MarshalJSON encodes {"BASIC": level} or a map of named bits.
func (p PermSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.fields())
}

// UnmarshalJSON decodes either wire form.
func (p *PermSet) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return p.setFields(raw)
}

// MarshalYAML encodes the same shape as MarshalJSON.
func (p PermSet) MarshalYAML() (any, error) {
	return p.fields(), nil
}

// UnmarshalYAML decodes either wire form.
func (p *PermSet) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return p.setFields(raw)
}

// MarshalJSON encodes {"BASIC": level} or a map of named bits.
func (f FlagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.fields())
}

// UnmarshalJSON decodes either wire form.
func (f *FlagSet) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return f.setFields(raw)
}

// MarshalYAML encodes the same shape as MarshalJSON.
func (f FlagSet) MarshalYAML() (any, error) {
	return f.fields(), nil
}

// UnmarshalYAML decodes either wire form.
func (f *FlagSet) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return f.setFields(raw)
}

func (p *PermSet) setFields(raw map[string]any) error {
	*p = PermSet{}
	if level, ok := raw[basicKey]; ok {
		s, ok := level.(string)
		if !ok {
			return fmt.Errorf("%w: BASIC must be a string", ErrUnknownBasicLevel)
		}
		p.Basic = BasicPerm(s)
		return nil
	}
	p.Bits = make(PermBits, len(raw))
	for k, v := range raw {
		if !isKnownPerm(Perm(k)) {
			return fmt.Errorf("%w: %q", ErrUnknownPerm, k)
		}
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %q must be a boolean", ErrUnknownPerm, k)
		}
		p.Bits[Perm(k)] = b
	}
	return nil
}

func (f *FlagSet) setFields(raw map[string]any) error {
	*f = FlagSet{}
	if level, ok := raw[basicKey]; ok {
		s, ok := level.(string)
		if !ok {
			return fmt.Errorf("%w: BASIC must be a string", ErrUnknownBasicLevel)
		}
		f.Basic = BasicFlag(s)
		return nil
	}
	f.Bits = make(FlagBits, len(raw))
	for k, v := range raw {
		if !isKnownFlag(Flag(k)) {
			return fmt.Errorf("%w: %q", ErrUnknownFlag, k)
		}
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %q must be a boolean", ErrUnknownFlag, k)
		}
		f.Bits[Flag(k)] = b
	}
	return nil
}

// MarshalText renders the tag as its string name.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

// UnmarshalText accepts canonical and legacy tag spellings.
func (t *Tag) UnmarshalText(text []byte) error {
	parsed, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalText accepts ALLOW and DENY in any case.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
