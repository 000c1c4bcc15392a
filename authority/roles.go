package authority

// Role is one of the four fixed user categories of the dashboard.
// Role values are assigned once on the user record and never change at
// runtime.
type Role string

const (
	RoleAdmin              Role = "admin"
	RoleResearcher         Role = "researcher"
	RoleGovernmentOfficial Role = "government_official"
	RoleCommunityMember    Role = "community_member"
)

var roleRanks = map[Role]int{
	RoleAdmin:              4,
	RoleGovernmentOfficial: 3,
	RoleResearcher:         2,
	RoleCommunityMember:    1,
}

// IsKnownRole reports whether role is a member of the closed enumeration.
func IsKnownRole(role Role) bool {
	_, found := roleRanks[role]
	return found
}

// Rank returns the privilege rank of a role. An unknown role ranks 0,
// below every known role.
func Rank(role Role) int {
	return roleRanks[role]
}

// HasHigherOrEqualRole reports whether role ranks at least as high as
// required. An unknown role ranks 0: an unknown caller loses against every
// known role, and every known role wins against an unknown requirement.
func HasHigherOrEqualRole(role, required Role) bool {
	return Rank(role) >= Rank(required)
}
