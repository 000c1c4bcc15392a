package authority

// Permission is a granted (action, resource) pair. Matching is exact and
// case-sensitive on both fields, no wildcard or hierarchy.
type Permission struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
}

// rolePermissions is the authoritative grant table. It is built once at
// package initialization and never written afterwards, so it is safe to
// read from any goroutine without locking.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		{"create", "users"}, {"read", "users"}, {"update", "users"}, {"delete", "users"},
		{"manage_roles", "users"},
		{"create", "wetlands"}, {"read", "wetlands"}, {"update", "wetlands"}, {"delete", "wetlands"},
		{"create", "sensors"}, {"read", "sensors"}, {"update", "sensors"}, {"delete", "sensors"},
		{"configure", "sensors"},
		{"create", "observations"}, {"read", "observations"}, {"update", "observations"}, {"delete", "observations"},
		{"read", "analytics"}, {"export", "data"},
		{"create", "community_reports"}, {"read", "community_reports"}, {"update", "community_reports"},
		{"delete", "community_reports"}, {"assign", "community_reports"}, {"comment", "community_reports"},
		{"create", "projects"}, {"read", "projects"}, {"update", "projects"}, {"delete", "projects"},
		{"approve", "projects"},
		{"create", "alerts"}, {"read", "alerts"}, {"update", "alerts"}, {"acknowledge", "alerts"},
		{"create", "resources"}, {"read", "resources"}, {"update", "resources"}, {"delete", "resources"},
		{"approve", "resources"},
		{"manage", "system_settings"}, {"configure", "system_settings"},
		{"read", "audit_logs"},
	},
	RoleResearcher: {
		{"create", "wetlands"}, {"read", "wetlands"}, {"update", "wetlands"},
		{"read", "sensors"}, {"configure", "sensors"},
		{"create", "observations"}, {"read", "observations"}, {"update", "observations"}, {"delete", "observations"},
		{"read", "analytics"}, {"export", "data"},
		{"create", "community_reports"}, {"read", "community_reports"}, {"update", "community_reports"},
		{"assign", "community_reports"}, {"comment", "community_reports"},
		{"create", "projects"}, {"read", "projects"}, {"update", "projects"},
		{"read", "alerts"}, {"acknowledge", "alerts"},
		{"create", "resources"}, {"read", "resources"},
	},
	RoleGovernmentOfficial: {
		{"read", "wetlands"},
		{"read", "sensors"},
		{"read", "observations"},
		{"read", "analytics"}, {"export", "data"},
		{"create", "community_reports"}, {"read", "community_reports"}, {"update", "community_reports"},
		{"assign", "community_reports"}, {"approve", "community_reports"}, {"comment", "community_reports"},
		{"read", "projects"}, {"approve", "projects"},
		{"read", "alerts"}, {"acknowledge", "alerts"},
		{"read", "resources"},
	},
	RoleCommunityMember: {
		{"read", "wetlands"},
		{"read", "observations"},
		{"create", "community_reports"}, {"read", "community_reports"}, {"comment", "community_reports"},
		{"read", "resources"},
	},
}

// HasPermission reports whether the role's grant table contains the exact
// (action, resource) pair. An unknown role has an empty grant table.
func HasPermission(role Role, action, resource string) bool {
	for _, p := range rolePermissions[role] {
		if p.Action == action && p.Resource == resource {
			return true
		}
	}
	return false
}

// RolePermissions returns a copy of the role's grant list in declared
// order, empty for an unknown role.
func RolePermissions(role Role) []Permission {
	perms := make([]Permission, 0, len(rolePermissions[role]))
	return append(perms, rolePermissions[role]...)
}
