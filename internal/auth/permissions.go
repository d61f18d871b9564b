package auth

// The role set is closed; the same four values are enforced by the database
// CHECK constraint and by permission derivation here.
const (
	RoleUser       = "user"
	RoleAgent      = "agent"
	RoleSuperAgent = "super_agent"
	RoleAdmin      = "admin"
)

// Permission tags returned to clients and checked by the CRM handlers.
const (
	PermViewOwnLeads     = "leads:view_own"
	PermUpdateOwnLeads   = "leads:update_own"
	PermViewOwnStats     = "stats:view_own"
	PermViewAllLeads     = "leads:view_all"
	PermExportLeads      = "leads:export"
	PermViewAnalytics    = "analytics:view"
	PermManageLeads      = "leads:manage"
	PermManageAgents     = "agents:manage"
	PermManageCampaigns  = "campaigns:manage"
	PermSystemSettings   = "system:settings"
)

// ValidRole reports whether role is a member of the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAgent, RoleSuperAgent, RoleAdmin:
		return true
	}
	return false
}

// PermissionsForRole derives the permission set for a role. Pure function, no
// side effects. Unknown roles get no permissions.
func PermissionsForRole(role string) []string {
	switch role {
	case RoleUser:
		return []string{PermViewOwnStats}
	case RoleAgent:
		return []string{PermViewOwnLeads, PermUpdateOwnLeads, PermViewOwnStats}
	case RoleSuperAgent:
		return []string{
			PermViewOwnLeads, PermUpdateOwnLeads, PermViewOwnStats,
			PermViewAllLeads, PermExportLeads, PermViewAnalytics, PermManageCampaigns,
		}
	case RoleAdmin:
		return []string{
			PermViewOwnLeads, PermUpdateOwnLeads, PermViewOwnStats,
			PermViewAllLeads, PermExportLeads, PermViewAnalytics,
			PermManageLeads, PermManageAgents, PermManageCampaigns, PermSystemSettings,
		}
	}
	return nil
}

// HasPermission reports whether the role's derived set contains perm.
func HasPermission(role, perm string) bool {
	for _, p := range PermissionsForRole(role) {
		if p == perm {
			return true
		}
	}
	return false
}
