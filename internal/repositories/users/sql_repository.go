package users

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

const selectUser = `SELECT u.id, u.full_name, u.email, u.password_hash, u.created_at, r.id, r.name
         FROM users u
         JOIN roles r ON r.id = u.role_id`

func scanUser(row dbx.RowScanner) (*models.User, error) {
	u := &models.User{Role: &models.Role{}}
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.Role.ID, &u.Role.Name)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Role == nil {
		return nil, errors.New("user has no role")
	}

	query :=
		`INSERT INTO users (full_name, email, password_hash, role_id, created_at)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		user.FullName, user.Email, user.PasswordHash, user.Role.ID, user.CreatedAt).Scan(&user.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUser+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "u.id = $1", id)
}

// GetByEmail matches case-insensitively.
func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "LOWER(u.email) = LOWER($1)", email)
}

func (r *SQLRepository) List(ctx context.Context, role string) ([]*models.User, error) {
	var w dbx.Where
	if role != "" {
		w.Add("r.name = %s", role)
	}

	rows, err := r.db.QueryContext(ctx, selectUser+w.SQL()+" ORDER BY u.id", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Update(ctx context.Context, user *models.User) error {
	if user.Role == nil {
		return errors.New("user has no role")
	}

	query :=
		`UPDATE users
         SET full_name = $1, email = $2, password_hash = $3, role_id = $4
         WHERE id = $5`

	res, err := r.db.ExecContext(ctx, query,
		user.FullName, user.Email, user.PasswordHash, user.Role.ID, user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
