package shared

// User management permissions.
const (
	PermUsersList   = "users.list"
	PermUsersView   = "users.view"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"
)

// UserScopes lists all permissions related to user management.
func UserScopes() []string {
	return []string{
		PermUsersList,
		PermUsersView,
		PermUsersEdit,
		PermUsersDelete,
	}
}
