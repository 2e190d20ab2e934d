package users

import "time"

// User represents a user account.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	Email        string
	Contact      string
	Address      string
	City         string
	Country      string
	PasswordHash string
	RoleID       int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpdateParams carries a partial update. Only non-nil fields are applied;
// identity, credentials and role are deliberately not updatable here.
type UpdateParams struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Contact   *string `json:"contact"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	Country   *string `json:"country"`
}

// Apply merges the declared mutable fields into u.
func (p UpdateParams) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Contact != nil {
		u.Contact = *p.Contact
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Country != nil {
		u.Country = *p.Country
	}
}

// Empty reports whether the update would change nothing.
func (p UpdateParams) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Contact == nil &&
		p.Address == nil && p.City == nil && p.Country == nil
}
