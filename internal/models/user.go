package models

import "time"

// User represents an account that can author content.
type User struct {
	ID          int
	Username    string
	DisplayName string
	Email       string
	CreatedAt   time.Time
	DisabledAt  *time.Time
	Roles       []string
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Role names known to the application.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleReader = "reader"
)

// Identity represents a user's authentication method with a provider.
type Identity struct {
	ID             int
	UserID         int
	Provider       string
	ProviderUserID string
	PasswordHash   *string
}
