package contracts

import (
	"context"

	"github.com/epicevents/crm/internal/models"
)

// Filter narrows List. Zero values match everything; Status is compared
// case-insensitively and Unpaid keeps contracts with a remaining amount.
type Filter struct {
	ClientID       *int64
	SalesContactID *int64
	Status         string
	Unpaid         bool
}

type Repository interface {
	Create(ctx context.Context, contract *models.Contract) (*models.Contract, error)
	GetByID(ctx context.Context, id string) (*models.Contract, error)
	List(ctx context.Context, f Filter) ([]*models.Contract, error)
	Update(ctx context.Context, contract *models.Contract) error
	// ReassignForClient moves every contract of clientID to salesContactID.
	ReassignForClient(ctx context.Context, clientID int64, salesContactID *int64) error
	Delete(ctx context.Context, id string) error
}
