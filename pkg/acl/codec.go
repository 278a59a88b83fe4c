package acl

import "fmt"

// Codec converts between basic levels, named bits and dialect bit masks.
type Codec struct {
	dialect Dialect
}

// NewCodec creates a codec over the given dialect. A nil dialect means NFS4.
func NewCodec(d Dialect) *Codec {
	if d == nil {
		d = NFS4
	}
	return &Codec{dialect: d}
}

// Dialect returns the dialect the codec was built with.
func (c *Codec) Dialect() Dialect {
	return c.dialect
}

// PermMaskOf ORs together the bit values of every set permission.
func (c *Codec) PermMaskOf(bits PermBits) uint32 {
	var mask uint32
	for name, set := range bits {
		if !set {
			continue
		}
		if v, ok := c.dialect.PermBit(name); ok {
			mask |= v
		}
	}
	return mask
}

// FlagMaskOf ORs together the bit values of every set flag.
func (c *Codec) FlagMaskOf(bits FlagBits) uint32 {
	var mask uint32
	for name, set := range bits {
		if !set {
			continue
		}
		if v, ok := c.dialect.FlagBit(name); ok {
			mask |= v
		}
	}
	return mask
}

// ToBasicPerms returns the basic level matching bits exactly, or PermOther.
func (c *Codec) ToBasicPerms(bits PermBits) BasicPerm {
	return c.dialect.BasicPermOf(c.PermMaskOf(bits))
}

// ToBasicFlags returns the basic level matching bits exactly, or FlagOther.
// INHERITED is provenance and never takes part in the match.
func (c *Codec) ToBasicFlags(bits FlagBits) BasicFlag {
	var mask uint32
	for name, set := range bits {
		if !set || name == FlagInherited {
			continue
		}
		if v, ok := c.dialect.FlagBit(name); ok {
			mask |= v
		}
	}
	return c.dialect.BasicFlagOf(mask)
}

// PermsFromMask expands a dialect mask into a full set of named bits.
func (c *Codec) PermsFromMask(mask uint32) PermBits {
	bits := make(PermBits, len(AllPerms))
	for _, name := range AllPerms {
		v, _ := c.dialect.PermBit(name)
		bits[name] = v != 0 && mask&v == v
	}
	return bits
}

// FlagsFromMask expands a dialect mask into a full set of named bits.
func (c *Codec) FlagsFromMask(mask uint32) FlagBits {
	bits := make(FlagBits, len(AllFlags))
	for _, name := range AllFlags {
		v, _ := c.dialect.FlagBit(name)
		bits[name] = v != 0 && mask&v == v
	}
	return bits
}

// ToAdvancedPerms expands a basic level into named bits.
func (c *Codec) ToAdvancedPerms(level BasicPerm) (PermBits, error) {
	mask, ok := c.dialect.PermLevel(level)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBasicLevel, level)
	}
	return c.PermsFromMask(mask), nil
}

// ToAdvancedFlags expands a basic level into named bits.
func (c *Codec) ToAdvancedFlags(level BasicFlag) (FlagBits, error) {
	mask, ok := c.dialect.FlagLevel(level)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBasicLevel, level)
	}
	return c.FlagsFromMask(mask), nil
}

// ExpandPerms returns the advanced form of p.
func (c *Codec) ExpandPerms(p PermSet) (PermBits, error) {
	if p.IsBasic() {
		return c.ToAdvancedPerms(p.Basic)
	}
	return p.Clone().Bits, nil
}

// ExpandFlags returns the advanced form of f.
func (c *Codec) ExpandFlags(f FlagSet) (FlagBits, error) {
	if f.IsBasic() {
		return c.ToAdvancedFlags(f.Basic)
	}
	return f.Clone().Bits, nil
}

// Expand returns a copy of e with perms and flags in advanced form.
func (c *Codec) Expand(e ACE) (ACE, error) {
	perms, err := c.ExpandPerms(e.Perms)
	if err != nil {
		return ACE{}, fmt.Errorf("perms of %s: %w", e.Who(), err)
	}
	flags, err := c.ExpandFlags(e.Flags)
	if err != nil {
		return ACE{}, fmt.Errorf("flags of %s: %w", e.Who(), err)
	}
	out := e.Clone()
	out.Perms = AdvancedPerms(perms)
	out.Flags = AdvancedFlags(flags)
	return out, nil
}

// Simplify projects an advanced entry onto basic levels. A field with no
// matching level keeps its advanced bits.
func (c *Codec) Simplify(e ACE) (ACE, error) {
	out, err := c.Expand(e)
	if err != nil {
		return ACE{}, err
	}
	if level := c.ToBasicPerms(out.Perms.Bits); level != PermOther {
		out.Perms = BasicPerms(level)
	}
	if level := c.ToBasicFlags(out.Flags.Bits); level != FlagOther {
		out.Flags = BasicFlags(level)
	}
	return out, nil
}

// Encode converts an entry into its dialect bit form.
func (c *Codec) Encode(e ACE) (RawEntry, error) {
	if err := checkPrincipal(e); err != nil {
		return RawEntry{}, err
	}
	adv, err := c.Expand(e)
	if err != nil {
		return RawEntry{}, err
	}
	raw := RawEntry{
		Tag:   e.Tag,
		ID:    -1,
		Type:  e.Type,
		Mask:  c.PermMaskOf(adv.Perms.Bits),
		Flags: c.FlagMaskOf(adv.Flags.Bits),
	}
	if e.ID != nil {
		raw.ID = *e.ID
	}
	if e.Tag == TagNamed {
		raw.Flags |= ACE4_IDENTIFIER_GROUP
	}
	return raw, nil
}

// Decode converts a dialect entry into its advanced form.
func (c *Codec) Decode(raw RawEntry) ACE {
	e := ACE{
		Tag:   raw.Tag,
		Type:  raw.Type,
		Perms: AdvancedPerms(c.PermsFromMask(raw.Mask)),
		Flags: AdvancedFlags(c.FlagsFromMask(raw.Flags &^ ACE4_IDENTIFIER_GROUP)),
	}
	if !raw.Tag.IsSpecial() {
		e.ID = IntID(raw.ID)
	}
	return e
}

// EncodeAll converts entries into dialect form, stopping at the first error.
func (c *Codec) EncodeAll(entries []ACE) ([]RawEntry, error) {
	out := make([]RawEntry, 0, len(entries))
	for i, e := range entries {
		raw, err := c.Encode(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// DecodeAll converts dialect entries into advanced entries.
func (c *Codec) DecodeAll(raw []RawEntry) []ACE {
	out := make([]ACE, 0, len(raw))
	for _, r := range raw {
		out = append(out, c.Decode(r))
	}
	return out
}
