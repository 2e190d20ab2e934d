package rbac

import "context"

// Store defines the authoritative persistence operations backing authorization.
// Postgres is the system of record; the Redis cache is only an optimisation
// layered on top of these reads.
type Store interface {
	// GetRole fetches a role by id.
	GetRole(ctx context.Context, id int64) (Role, error)
	// FindUserRole resolves the role held by a user. Returns shared.ErrNotFound
	// when the user no longer exists.
	FindUserRole(ctx context.Context, userID int64) (Role, error)
	// ListRoleNames returns every role name, used for warmup and cache repair.
	ListRoleNames(ctx context.Context) ([]string, error)

	// CreatePermission inserts a permission with a unique name.
	CreatePermission(ctx context.Context, name, description string) (Permission, error)
	// GetPermission fetches a permission by id.
	GetPermission(ctx context.Context, id int64) (Permission, error)
	// UpdatePermission updates name/description of a permission.
	UpdatePermission(ctx context.Context, id int64, name, description string) (Permission, error)
	// ListPermissions returns all permissions ordered by name.
	ListPermissions(ctx context.Context) ([]Permission, error)

	// AttachPermission links a permission to a role. created is false when the
	// pair already existed; the check-then-insert runs as one statement so
	// concurrent identical grants cannot double-insert.
	AttachPermission(ctx context.Context, roleID, permissionID int64) (created bool, err error)
	// DeletePermission removes a permission and its role links in one
	// transaction, returning the permission name and the names of roles that
	// held it so the cache can be updated after commit.
	DeletePermission(ctx context.Context, permissionID int64) (name string, affectedRoles []string, err error)
	// RolePermissionNames returns the permission names granted to a role along
	// with the role name.
	RolePermissionNames(ctx context.Context, roleID int64) (names []string, roleName string, err error)
	// RolePermissions returns the full permission rows granted to a role.
	RolePermissions(ctx context.Context, roleID int64) ([]Permission, string, error)

	// EnsurePermission creates the named permission when absent.
	EnsurePermission(ctx context.Context, name, description string) (created bool, err error)
	// EnsureRole creates the named role when absent.
	EnsureRole(ctx context.Context, name, description string) (created bool, err error)
	// GetRoleByName fetches a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (Role, error)
}
