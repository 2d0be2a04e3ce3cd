package models

import (
	"strings"
	"time"

	"github.com/epicevents/crm/internal/common"
)

// Contract binds a client to an amount. ID is a UUID string.
type Contract struct {
	ID              string
	ClientID        int64
	TotalAmount     float64
	RemainingAmount float64
	CreationDate    time.Time
	Status          string
	SalesContactID  *int64
}

// AssignedUserID implements the ownership lookup used by the access guard.
func (c *Contract) AssignedUserID() *int64 { return c.SalesContactID }

// IsSigned reports whether the contract status is "signed".
func (c *Contract) IsSigned() bool {
	return strings.EqualFold(c.Status, common.ContractSigned)
}

// PaidAmount is the part of the total already settled.
func (c *Contract) PaidAmount() float64 {
	return c.TotalAmount - c.RemainingAmount
}
