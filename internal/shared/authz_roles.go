package shared

// Role management permissions.
const (
	PermRolesCreate = "roles.create"
	PermRolesList   = "roles.list"
	PermRolesView   = "roles.view"
	PermRolesEdit   = "roles.edit"
	PermRolesDelete = "roles.delete"
)

// RoleScopes lists all permissions related to role management.
func RoleScopes() []string {
	return []string{
		PermRolesCreate,
		PermRolesList,
		PermRolesView,
		PermRolesEdit,
		PermRolesDelete,
	}
}
