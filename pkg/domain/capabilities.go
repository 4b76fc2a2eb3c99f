package domain

// Role is the coarse actor classification carried in access tokens.
type Role string

const (
	RoleStudent     Role = "student"
	RoleInstitution Role = "institution"
	RoleAdmin       Role = "admin"
	RoleChecker     Role = "checker"
)

// CapabilitySet is resolved once per actor from its role. The API layer
// consults it instead of scattering role checks across handlers.
type CapabilitySet struct {
	CanIssue  bool
	CanRevoke bool
	CanVerify bool
}

// CapabilitiesFor maps a role to its capability set. Unknown roles get no
// capabilities; public verification does not require a token at all, CanVerify
// here gates the authenticated read models (history, logs, stats).
func CapabilitiesFor(role Role) CapabilitySet {
	switch role {
	case RoleAdmin:
		return CapabilitySet{CanIssue: true, CanRevoke: true, CanVerify: true}
	case RoleInstitution:
		return CapabilitySet{CanIssue: true, CanRevoke: true, CanVerify: true}
	case RoleChecker:
		return CapabilitySet{CanVerify: true}
	case RoleStudent:
		return CapabilitySet{CanVerify: true}
	default:
		return CapabilitySet{}
	}
}
