package repomanager

import (
	"context"
	"database/sql"

	"github.com/epicevents/crm/internal/models"
)

// UserLookup resolves guard subjects against the database, loading the
// user's role together with its permissions.
type UserLookup struct {
	db      *sql.DB
	manager RepositoryManager
}

func NewUserLookup(db *sql.DB, manager RepositoryManager) *UserLookup {
	return &UserLookup{db: db, manager: manager}
}

func (l *UserLookup) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := l.manager.Users(l.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := l.manager.Roles(l.db).Permissions(ctx, user.Role.ID)
	if err != nil {
		return nil, err
	}
	user.Role.Permissions = perms
	return user, nil
}
