package authority

// roleSections gates dashboard navigation only. It is maintained
// independently of the permission table: the two are not cross-validated
// and a role may see a section without fine-grained permission for every
// action inside it.
var roleSections = map[Role][]string{
	RoleAdmin: {
		"overview", "user_management", "wetlands", "sensors", "observations",
		"analytics", "community_reports", "projects", "alerts",
		"system_settings", "audit_logs",
	},
	RoleResearcher: {
		"overview", "wetlands", "sensors", "observations", "analytics",
		"community_reports", "projects", "alerts",
	},
	RoleGovernmentOfficial: {
		"overview", "wetlands", "analytics", "community_reports", "projects",
		"alerts",
	},
	RoleCommunityMember: {
		"overview", "local_wetlands", "report_issue", "educational_resources",
	},
}

// CanAccessSection reports whether section is listed for the role.
// Unknown role or section yields false.
func CanAccessSection(role Role, section string) bool {
	for _, s := range roleSections[role] {
		if s == section {
			return true
		}
	}
	return false
}

// AllowedSections returns the role's sections in declared order. Callers
// may rely on the order for menu rendering. The result is a copy, never
// nil; an unknown role gets an empty list.
func AllowedSections(role Role) []string {
	sections := make([]string, 0, len(roleSections[role]))
	return append(sections, roleSections[role]...)
}
