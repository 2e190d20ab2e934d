package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

// Seed roles ensured at bootstrap. RoleAdmin is granted every known scope.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// SeedRoles lists the role names created at bootstrap.
func SeedRoles() []string {
	return []string{RoleAdmin, RoleClient}
}

// AllScopes returns every registered permission name across resource groups.
func AllScopes() []string {
	var scopes []string
	scopes = append(scopes, UserScopes()...)
	scopes = append(scopes, RoleScopes()...)
	scopes = append(scopes, PermissionScopes()...)
	return scopes
}

var fold = cases.Fold()

// NormalizeScope canonicalises a permission name for comparison.
func NormalizeScope(name string) string {
	return fold.String(strings.TrimSpace(name))
}

// KnownPermission reports whether name matches a registered scope.
func KnownPermission(name string) bool {
	needle := NormalizeScope(name)
	for _, scope := range AllScopes() {
		if NormalizeScope(scope) == needle {
			return true
		}
	}
	return false
}
