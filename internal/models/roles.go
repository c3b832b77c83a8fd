// internal/models/roles.go

package models

// UserRole is the permission scope of an account.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleVolunteer UserRole = "volunteer"
	RoleAdmin     UserRole = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// IsPrivileged reports whether r may drive the complaint workflow
// (status and assignment).
func (r UserRole) IsPrivileged() bool {
	return r == RoleVolunteer || r == RoleAdmin
}

func (r UserRole) String() string {
	return string(r)
}

// AllRoles lists every role in ascending order of privilege.
func AllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleVolunteer,
		RoleAdmin,
	}
}

// RoleFromString converts s into a UserRole.
func RoleFromString(s string) (UserRole, bool) {
	r := UserRole(s)
	if r.IsValid() {
		return r, true
	}
	return "", false
}
