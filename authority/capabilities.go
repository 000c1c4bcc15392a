package authority

// Capabilities is a convenience projection over the permission table so
// that UI callers needn't know the action/resource vocabulary. Each flag
// is exactly one HasPermission call and is computed on demand, never
// cached, so it can't drift from a direct lookup.
type Capabilities struct {
	CanManageUsers    bool `json:"canManageUsers"`
	CanManageWetlands bool `json:"canManageWetlands"`
	CanManageSensors  bool `json:"canManageSensors"`
	CanViewAnalytics  bool `json:"canViewAnalytics"`
	CanExportData     bool `json:"canExportData"`
	CanManageSystem   bool `json:"canManageSystem"`
	CanViewAuditLogs  bool `json:"canViewAuditLogs"`
	CanAssignReports  bool `json:"canAssignReports"`
	CanManageProjects bool `json:"canManageProjects"`
}

func UserCapabilities(role Role) Capabilities {
	return Capabilities{
		CanManageUsers:    HasPermission(role, "manage_roles", "users"),
		CanManageWetlands: HasPermission(role, "delete", "wetlands"),
		CanManageSensors:  HasPermission(role, "configure", "sensors"),
		CanViewAnalytics:  HasPermission(role, "read", "analytics"),
		CanExportData:     HasPermission(role, "export", "data"),
		CanManageSystem:   HasPermission(role, "manage", "system_settings"),
		CanViewAuditLogs:  HasPermission(role, "read", "audit_logs"),
		CanAssignReports:  HasPermission(role, "assign", "community_reports"),
		CanManageProjects: HasPermission(role, "delete", "projects"),
	}
}
