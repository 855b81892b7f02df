package domain

// User roles. Companies get a dedicated role so job and company management
// can be gated without a separate permission table.
const (
	RoleAdmin   = "admin"
	RoleUser    = "user"
	RoleCompany = "company"
)

// Roles lists every valid role name.
var Roles = []string{RoleAdmin, RoleUser, RoleCompany}

// ValidRole reports whether name is a known role.
func ValidRole(name string) bool {
	for _, r := range Roles {
		if r == name {
			return true
		}
	}
	return false
}
