package clients

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

const selectClient = `SELECT id, full_name, email, phone, company_name, creation_date, last_update_date, sales_contact_id
         FROM clients`

func scanClient(row dbx.RowScanner) (*models.Client, error) {
	c := &models.Client{}
	var contact sql.NullInt64
	err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CompanyName, &c.CreationDate, &c.LastUpdateDate, &contact)
	if err != nil {
		return nil, err
	}
	c.SalesContactID = dbx.Int64Ptr(contact)
	return c, nil
}

func (r *SQLRepository) Create(ctx context.Context, client *models.Client) (*models.Client, error) {
	query :=
		`INSERT INTO clients (full_name, email, phone, company_name, creation_date, last_update_date, sales_contact_id)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		client.FullName, client.Email, client.Phone, client.CompanyName,
		client.CreationDate, client.LastUpdateDate, dbx.NullInt64(client.SalesContactID)).Scan(&client.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return client, nil
}

func (r *SQLRepository) getOne(ctx context.Context, where string, arg any) (*models.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx, selectClient+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *SQLRepository) List(ctx context.Context, f Filter) ([]*models.Client, error) {
	var w dbx.Where
	if f.SalesContactID != nil {
		w.Add("sales_contact_id = %s", *f.SalesContactID)
	}
	if f.Unassigned {
		w.Raw("sales_contact_id IS NULL")
	}

	rows, err := r.db.QueryContext(ctx, selectClient+w.SQL()+" ORDER BY id", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Update(ctx context.Context, client *models.Client) error {
	query :=
		`UPDATE clients
         SET full_name = $1, email = $2, phone = $3, company_name = $4, last_update_date = $5, sales_contact_id = $6
         WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query,
		client.FullName, client.Email, client.Phone, client.CompanyName,
		client.LastUpdateDate, dbx.NullInt64(client.SalesContactID), client.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}
