// Package models holds the CRM records as they travel between storage,
// services and the command layer.
package models

import "time"

// User is a staff member: the subject of authentication and the actor of
// every permission check. PasswordHash is an encoded argon2id hash, never
// the password itself.
type User struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
	Role         *Role
	CreatedAt    time.Time
}

// RoleName returns the user's role name, or "" when none is loaded.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}
