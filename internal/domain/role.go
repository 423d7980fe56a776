package domain

// Role partitions principals into the three user classes.
type Role string

const (
	RoleSubmitter Role = "submitter"
	RoleStaff     Role = "staff"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether the value is one of the known roles.
func ValidRole(role Role) bool {
	switch role {
	case RoleSubmitter, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// DashboardPath returns the dashboard route owned by the role.
func DashboardPath(role Role) string {
	return "/dashboard/" + string(role)
}
