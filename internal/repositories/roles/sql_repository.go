package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	role := &models.Role{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	role.Permissions, err = r.Permissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *SQLRepository) Permissions(ctx context.Context, roleID int64) ([]string, error) {
	query :=
		`SELECT p.name FROM permissions p
         JOIN role_permissions rp ON rp.permission_id = p.id
         WHERE rp.role_id = $1
         ORDER BY p.name`

	rows, err := r.db.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return names, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var result []*models.Role
	for rows.Next() {
		role := &models.Role{}
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, role)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// second pass once the cursor is closed; sqlite runs on one connection
	for _, role := range result {
		if role.Permissions, err = r.Permissions(ctx, role.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// EnsureRole inserts name if missing and returns its id.
func (r *SQLRepository) EnsureRole(ctx context.Context, name string) (int64, error) {
	return r.ensure(ctx, "roles", name)
}

// EnsurePermission inserts name if missing and returns its id.
func (r *SQLRepository) EnsurePermission(ctx context.Context, name string) (int64, error) {
	return r.ensure(ctx, "permissions", name)
}

func (r *SQLRepository) ensure(ctx context.Context, table, name string) (int64, error) {
	insert := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, table)
	if _, err := r.db.ExecContext(ctx, insert, name); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	var id int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE name = $1`, table), name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// Grant links a permission to a role; granting twice is a no-op.
func (r *SQLRepository) Grant(ctx context.Context, roleID, permissionID int64) error {
	query :=
		`INSERT INTO role_permissions (role_id, permission_id)
         VALUES ($1, $2)
         ON CONFLICT (role_id, permission_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, roleID, permissionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
