package users

import (
	"context"

	"github.com/epicevents/crm/internal/models"
)

// Repository persists staff users. Returned users carry their role id and
// name; permissions are loaded by the roles repository.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// List returns users ordered by id; an empty role matches every role.
	List(ctx context.Context, role string) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
