package roles

import (
	"context"

	"github.com/epicevents/crm/internal/models"
)

// Repository reads and seeds roles and the permissions granted to them.
type Repository interface {
	// GetByName returns the role with its permissions.
	GetByName(ctx context.Context, name string) (*models.Role, error)
	// Permissions returns the permission names granted to roleID, sorted.
	Permissions(ctx context.Context, roleID int64) ([]string, error)
	List(ctx context.Context) ([]*models.Role, error)

	EnsureRole(ctx context.Context, name string) (int64, error)
	EnsurePermission(ctx context.Context, name string) (int64, error)
	Grant(ctx context.Context, roleID, permissionID int64) error
}
