package sid

var (
	// WellKnownEveryone is the "Everyone" (World) SID: S-1-1-0.
	WellKnownEveryone = ParseSIDMust("S-1-1-0")

	// WellKnownCreatorOwner is the CREATOR OWNER SID: S-1-3-0.
	WellKnownCreatorOwner = ParseSIDMust("S-1-3-0")

	// WellKnownCreatorGroup is the CREATOR GROUP SID: S-1-3-1.
	WellKnownCreatorGroup = ParseSIDMust("S-1-3-1")

	// WellKnownAdministrators is the BUILTIN\Administrators SID: S-1-5-32-544.
	WellKnownAdministrators = ParseSIDMust("S-1-5-32-544")

	// WellKnownUsers is the BUILTIN\Users SID: S-1-5-32-545.
	// Its RID is the gid SMB shares grant MODIFY to by default.
	WellKnownUsers = ParseSIDMust("S-1-5-32-545")

	// WellKnownGuests is the BUILTIN\Guests SID: S-1-5-32-546.
	WellKnownGuests = ParseSIDMust("S-1-5-32-546")
)

// wellKnownNames maps well-known SID strings to display names.
var wellKnownNames = map[string]string{
	"S-1-1-0":      "Everyone",
	"S-1-3-0":      "CREATOR OWNER",
	"S-1-3-1":      "CREATOR GROUP",
	"S-1-5-32-544": "BUILTIN\\Administrators",
	"S-1-5-32-545": "BUILTIN\\Users",
	"S-1-5-32-546": "BUILTIN\\Guests",
}

// WellKnownName returns the display name for a well-known SID.
func WellKnownName(s *SID) (string, bool) {
	name, ok := wellKnownNames[FormatSID(s)]
	return name, ok
}

// BuiltinGID returns the gid a BUILTIN group is mapped to: its RID.
func BuiltinGID(s *SID) (int, bool) {
	if !s.IsBuiltin() {
		return 0, false
	}
	rid, ok := s.RID()
	return int(rid), ok
}
