package events

import (
	"context"

	"github.com/epicevents/crm/internal/models"
)

// Filter narrows List. Unassigned keeps events without a support contact.
type Filter struct {
	ContractID       string
	ClientID         *int64
	SupportContactID *int64
	Unassigned       bool
}

type Repository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context, f Filter) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int64) error
}
