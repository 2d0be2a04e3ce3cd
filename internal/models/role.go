package models

// Role is a named bundle of permission names.
type Role struct {
	ID          int64
	Name        string
	Permissions []string
}
