package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-api/gatehouse-api/internal/platform/db"
	"github.com/gatehouse-api/gatehouse-api/internal/platform/httpx"
	"github.com/gatehouse-api/gatehouse-api/internal/shared"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository provides PostgreSQL backed persistence for roles, permissions and
// their assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// GetRoleByName fetches a role by its unique name.
func (r *Repository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// FindUserRole resolves the role held by a user via a fresh join, so a role
// change takes effect on the next request regardless of token contents.
func (r *Repository) FindUserRole(ctx context.Context, userID int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`, userID).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// ListRoleNames returns every role name ordered alphabetically.
func (r *Repository) ListRoleNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreatePermission inserts a permission with a unique name.
func (r *Repository) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, description, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, name, description, created_at, updated_at`, name, description).
		Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Permission{}, httpx.ErrDuplicate
		}
		return Permission{}, err
	}
	return perm, nil
}

// GetPermission fetches a permission by id.
func (r *Repository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM permissions WHERE id = $1`, id).
		Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, err
	}
	return perm, nil
}

// UpdatePermission updates a permission's name and description.
func (r *Repository) UpdatePermission(ctx context.Context, id int64, name, description string) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx, `
		UPDATE permissions SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, created_at, updated_at`, id, name, description).
		Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Permission{}, httpx.ErrDuplicate
		}
		return Permission{}, err
	}
	return perm, nil
}

// ListPermissions returns all permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// AttachPermission links a permission to a role. ON CONFLICT keeps concurrent
// identical grants from double-inserting; zero rows affected means the pair
// already existed.
func (r *Repository) AttachPermission(ctx context.Context, roleID, permissionID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, permissionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return false, shared.ErrNotFound
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeletePermission removes a permission and its role links inside one
// transaction. The affected role names are collected before the delete so the
// caller can update the cache only after the transaction has committed.
func (r *Repository) DeletePermission(ctx context.Context, permissionID int64) (string, []string, error) {
	var name string
	var affected []string
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT name FROM permissions WHERE id = $1`, permissionID).Scan(&name); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT r.name
			FROM role_permissions rp
			JOIN roles r ON r.id = rp.role_id
			WHERE rp.permission_id = $1`, permissionID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var roleName string
			if err := rows.Scan(&roleName); err != nil {
				return err
			}
			affected = append(affected, roleName)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, permissionID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, permissionID)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return name, affected, nil
}

// RolePermissionNames returns the permission names granted to a role.
func (r *Repository) RolePermissionNames(ctx context.Context, roleID int64) ([]string, string, error) {
	perms, roleName, err := r.RolePermissions(ctx, roleID)
	if err != nil {
		return nil, "", err
	}
	names := make([]string, len(perms))
	for i, perm := range perms {
		names[i] = perm.Name
	}
	return names, roleName, nil
}

// RolePermissions returns the permission rows granted to a role along with the
// role name.
func (r *Repository) RolePermissions(ctx context.Context, roleID int64) ([]Permission, string, error) {
	role, err := r.GetRole(ctx, roleID)
	if err != nil {
		return nil, "", err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description, p.created_at, p.updated_at
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
			return nil, "", err
		}
		perms = append(perms, perm)
	}
	return perms, role.Name, rows.Err()
}

// EnsurePermission creates the named permission when absent.
func (r *Repository) EnsurePermission(ctx context.Context, name, description string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO permissions (name, description, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING`, name, description)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// EnsureRole creates the named role when absent.
func (r *Repository) EnsureRole(ctx context.Context, name, description string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO roles (name, description, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING`, name, description)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ Store = (*Repository)(nil)
