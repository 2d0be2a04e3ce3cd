package models

import "time"

// Client is a customer company contact. SalesContactID is the commercial
// user responsible for it, nil when unassigned.
type Client struct {
	ID             int64
	FullName       string
	Email          string
	Phone          string
	CompanyName    string
	CreationDate   time.Time
	LastUpdateDate time.Time
	SalesContactID *int64
}

// AssignedUserID implements the ownership lookup used by the access guard.
func (c *Client) AssignedUserID() *int64 { return c.SalesContactID }
