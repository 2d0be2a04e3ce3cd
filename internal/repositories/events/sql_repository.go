package events

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

const selectEvent = `SELECT id, name, contract_id, client_id, start_date, end_date, location, attendees, notes, support_contact_id
         FROM events`

func scanEvent(row dbx.RowScanner) (*models.Event, error) {
	e := &models.Event{}
	var contact sql.NullInt64
	err := row.Scan(&e.ID, &e.Name, &e.ContractID, &e.ClientID, &e.StartDate, &e.EndDate,
		&e.Location, &e.Attendees, &e.Notes, &contact)
	if err != nil {
		return nil, err
	}
	e.SupportContactID = dbx.Int64Ptr(contact)
	return e, nil
}

func (r *SQLRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query :=
		`INSERT INTO events (name, contract_id, client_id, start_date, end_date, location, attendees, notes, support_contact_id)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		event.Name, event.ContractID, event.ClientID, event.StartDate, event.EndDate,
		event.Location, event.Attendees, event.Notes, dbx.NullInt64(event.SupportContactID)).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return event, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, selectEvent+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *SQLRepository) List(ctx context.Context, f Filter) ([]*models.Event, error) {
	var w dbx.Where
	if f.ContractID != "" {
		w.Add("contract_id = %s", f.ContractID)
	}
	if f.ClientID != nil {
		w.Add("client_id = %s", *f.ClientID)
	}
	if f.SupportContactID != nil {
		w.Add("support_contact_id = %s", *f.SupportContactID)
	}
	if f.Unassigned {
		w.Raw("support_contact_id IS NULL")
	}

	rows, err := r.db.QueryContext(ctx, selectEvent+w.SQL()+" ORDER BY start_date, id", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Update(ctx context.Context, event *models.Event) error {
	query :=
		`UPDATE events
         SET name = $1, start_date = $2, end_date = $3, location = $4, attendees = $5, notes = $6, support_contact_id = $7
         WHERE id = $8`

	res, err := r.db.ExecContext(ctx, query,
		event.Name, event.StartDate, event.EndDate, event.Location, event.Attendees,
		event.Notes, dbx.NullInt64(event.SupportContactID), event.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}
