package roles

import "time"

// Role is a named grouping of permissions assigned to users.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
