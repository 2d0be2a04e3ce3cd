package clients

import (
	"context"

	"github.com/epicevents/crm/internal/models"
)

// Filter narrows List. Zero values match everything.
type Filter struct {
	SalesContactID *int64
	Unassigned     bool
}

type Repository interface {
	Create(ctx context.Context, client *models.Client) (*models.Client, error)
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	GetByEmail(ctx context.Context, email string) (*models.Client, error)
	List(ctx context.Context, f Filter) ([]*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id int64) error
}
