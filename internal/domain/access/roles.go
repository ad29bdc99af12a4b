package access

import (
	"sort"
	"strings"
)

const (
	RoleUser       = "user"
	RoleManager    = "manager"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super admin"
)

var roleLevels = map[string]int{
	RoleUser:       1,
	RoleManager:    2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

var roleNames = map[string]string{
	RoleUser:       "User",
	RoleManager:    "Manager",
	RoleAdmin:      "Admin",
	RoleSuperAdmin: "Super Admin",
}

// Roles returns the known roles ordered from least to most privileged.
func Roles() []string {
	return []string{RoleUser, RoleManager, RoleAdmin, RoleSuperAdmin}
}

func ValidRole(role string) bool {
	_, ok := roleLevels[role]
	return ok
}

// Level returns the privilege level of a role, or 0 when the role is unknown.
func Level(role string) int {
	return roleLevels[NormalizeRole(role)]
}

func RoleName(role string) string {
	if name, ok := roleNames[role]; ok {
		return name
	}
	return role
}

// NormalizeRole lowercases and trims a stored role string. An unset role is
// treated as RoleUser.
func NormalizeRole(role string) string {
	normalized := strings.ToLower(strings.TrimSpace(role))
	if normalized == "" {
		return RoleUser
	}
	return strings.Join(strings.Fields(normalized), " ")
}

// CanAssign reports whether actor may grant target to another principal.
// Only admins manage roles, nobody grants above their own level, and only a
// super admin may create another super admin.
func CanAssign(actor, target string) bool {
	actor = NormalizeRole(actor)
	target = NormalizeRole(target)
	if !ValidRole(actor) || !ValidRole(target) {
		return false
	}
	if Level(actor) < Level(RoleAdmin) {
		return false
	}
	if target == RoleSuperAdmin {
		return actor == RoleSuperAdmin
	}
	return Level(actor) >= Level(target)
}

// sortRoles orders known roles by privilege and appends unknown ones
// alphabetically after them.
func sortRoles(roles []string) {
	sort.SliceStable(roles, func(i, j int) bool {
		li, lj := roleLevels[roles[i]], roleLevels[roles[j]]
		switch {
		case li == 0 && lj == 0:
			return roles[i] < roles[j]
		case li == 0:
			return false
		case lj == 0:
			return true
		default:
			return li < lj
		}
	})
}
