package rbac

import "time"

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability gating one operation.
type Permission struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assignment ties a permission to a role.
type Assignment struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// GrantOutcome distinguishes a fresh grant from a no-op duplicate. A duplicate
// is a success variant, never an error.
type GrantOutcome int

const (
	// GrantCreated indicates a new role-permission link was inserted.
	GrantCreated GrantOutcome = iota
	// GrantAlreadyExists indicates the link was already present.
	GrantAlreadyExists
)

// String implements fmt.Stringer.
func (o GrantOutcome) String() string {
	if o == GrantAlreadyExists {
		return "already_exists"
	}
	return "created"
}
