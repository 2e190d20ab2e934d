package shared

// Permission management permissions.
const (
	PermPermissionsCreate = "permissions.create"
	PermPermissionsList   = "permissions.list"
	PermPermissionsView   = "permissions.view"
	PermPermissionsEdit   = "permissions.edit"
	PermPermissionsDelete = "permissions.delete"
)

// PermissionScopes lists all permissions related to permission management.
func PermissionScopes() []string {
	return []string{
		PermPermissionsCreate,
		PermPermissionsList,
		PermPermissionsView,
		PermPermissionsEdit,
		PermPermissionsDelete,
	}
}
