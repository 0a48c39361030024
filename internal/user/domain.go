package user

import "time"

const (
	RoleCitizen   = "citizen"
	RoleInspector = "inspector"
	RoleAdmin     = "admin"
)

type User struct {
	ID         string
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Avatar     string
	Role       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile is the external identity returned by an OAuth provider, before it
// is reconciled with the users table.
type Profile struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Avatar     string
}
