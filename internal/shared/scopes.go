package shared

// Permission names follow the resource:action grammar understood by the
// authorization engine; "*" widens to all actions on a resource.
const (
	PermUsersRead  = "users:read"
	PermUsersWrite = "users:write"

	PermRolesRead  = "roles:read"
	PermRolesGrant = "roles:grant"

	PermStudentsRead   = "students:read"
	PermStudentsWrite  = "students:write"
	PermStudentsDelete = "students:delete"

	PermCoursesRead  = "courses:read"
	PermCoursesWrite = "courses:write"

	PermPaymentsRead  = "payments:read"
	PermPaymentsWrite = "payments:write"
)

// CoreScopes lists every permission the platform seeds.
func CoreScopes() []string {
	return []string{
		PermUsersRead,
		PermUsersWrite,
		PermRolesRead,
		PermRolesGrant,
		PermStudentsRead,
		PermStudentsWrite,
		PermStudentsDelete,
		PermCoursesRead,
		PermCoursesWrite,
		PermPaymentsRead,
		PermPaymentsWrite,
	}
}
