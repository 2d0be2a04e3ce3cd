package contracts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

const selectContract = `SELECT id, client_id, total_amount, remaining_amount, creation_date, status, sales_contact_id
         FROM contracts`

func scanContract(row dbx.RowScanner) (*models.Contract, error) {
	c := &models.Contract{}
	var contact sql.NullInt64
	err := row.Scan(&c.ID, &c.ClientID, &c.TotalAmount, &c.RemainingAmount, &c.CreationDate, &c.Status, &contact)
	if err != nil {
		return nil, err
	}
	c.SalesContactID = dbx.Int64Ptr(contact)
	return c, nil
}

// Create inserts contract; the caller assigns the UUID.
func (r *SQLRepository) Create(ctx context.Context, contract *models.Contract) (*models.Contract, error) {
	query :=
		`INSERT INTO contracts (id, client_id, total_amount, remaining_amount, creation_date, status, sales_contact_id)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		contract.ID, contract.ClientID, contract.TotalAmount, contract.RemainingAmount,
		contract.CreationDate, contract.Status, dbx.NullInt64(contract.SalesContactID))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return contract, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Contract, error) {
	c, err := scanContract(r.db.QueryRowContext(ctx, selectContract+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) List(ctx context.Context, f Filter) ([]*models.Contract, error) {
	var w dbx.Where
	if f.ClientID != nil {
		w.Add("client_id = %s", *f.ClientID)
	}
	if f.SalesContactID != nil {
		w.Add("sales_contact_id = %s", *f.SalesContactID)
	}
	if f.Status != "" {
		w.Add("LOWER(status) = %s", strings.ToLower(f.Status))
	}
	if f.Unpaid {
		w.Raw("remaining_amount > 0")
	}

	rows, err := r.db.QueryContext(ctx, selectContract+w.SQL()+" ORDER BY creation_date, id", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Contract
	for rows.Next() {
		c, err := scanContract(rows)
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

func (r *SQLRepository) Update(ctx context.Context, contract *models.Contract) error {
	query :=
		`UPDATE contracts
         SET total_amount = $1, remaining_amount = $2, status = $3, sales_contact_id = $4
         WHERE id = $5`

	res, err := r.db.ExecContext(ctx, query,
		contract.TotalAmount, contract.RemainingAmount, contract.Status,
		dbx.NullInt64(contract.SalesContactID), contract.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}

func (r *SQLRepository) ReassignForClient(ctx context.Context, clientID int64, salesContactID *int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE contracts SET sales_contact_id = $1 WHERE client_id = $2`,
		dbx.NullInt64(salesContactID), clientID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}
