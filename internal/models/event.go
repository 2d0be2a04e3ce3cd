package models

import "time"

// Event is organised for a signed contract. SupportContactID is the
// support user running it. Contract is populated by services when the
// linked contract is needed for ownership checks.
type Event struct {
	ID               int64
	Name             string
	ContractID       string
	ClientID         int64
	StartDate        time.Time
	EndDate          time.Time
	Location         string
	Attendees        int
	Notes            string
	SupportContactID *int64

	Contract *Contract
}

// AssignedUserID implements the ownership lookup used by the access guard.
func (e *Event) AssignedUserID() *int64 { return e.SupportContactID }
