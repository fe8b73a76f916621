package model

import "time"

// Roles stored in users.role.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// AccountStatus gates every authenticated operation.
type AccountStatus string

const (
	AccountEnabled   AccountStatus = "ENABLED"
	AccountDisabled  AccountStatus = "DISABLED"
	AccountSuspended AccountStatus = "SUSPENDED"
)

// Valid reports whether s is one of the known account statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountEnabled, AccountDisabled, AccountSuspended:
		return true
	}
	return false
}

// User represents an application user record as stored in the `users`
// table.  PasswordHash never leaves the repository layer in responses.
//
// Fields:
//
//	ID             – UUID primary key.
//	Username       – unique login name.
//	Email          – unique email address.
//	PasswordHash   – bcrypt hashed password.
//	Role           – ADMIN or USER.
//	Status         – ENABLED, DISABLED or SUSPENDED.
//	SuspendedUntil – end of a suspension (nil unless SUSPENDED).
//	CreatedAt      – timestamp of creation.
//	UpdatedAt      – timestamp of last update.
type User struct {
	ID             string        `json:"id"`             // users.id
	Username       string        `json:"username"`       // users.username
	Email          string        `json:"email"`          // users.email
	PasswordHash   string        `json:"-"`              // users.password_hash
	Role           string        `json:"role"`           // users.role
	Status         AccountStatus `json:"status"`         // users.status
	SuspendedUntil *time.Time    `json:"suspendedUntil"` // users.suspended_until (nullable)
	CreatedAt      time.Time     `json:"createdAt"`      // users.created_at
	UpdatedAt      time.Time     `json:"updatedAt"`      // users.updated_at
}

// Blocked reports whether the account may not use the API at instant now.
// A suspension whose end has passed no longer blocks.
func (u User) Blocked(now time.Time) bool {
	switch u.Status {
	case AccountDisabled:
		return true
	case AccountSuspended:
		return u.SuspendedUntil != nil && u.SuspendedUntil.After(now)
	}
	return false
}
