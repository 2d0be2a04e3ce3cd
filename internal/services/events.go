package services

import (
	"context"
	"strings"
	"time"

	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/models"
	"github.com/epicevents/crm/internal/repositories/events"
	"github.com/google/uuid"
)

// EventService manages events organised for signed contracts.
type EventService struct {
	base
}

type EventInput struct {
	Name             string
	StartDate        time.Time
	EndDate          time.Time
	Location         string
	Attendees        int
	Notes            string
	SupportContactID *int64
}

// EventUpdate holds optional changes; nil fields are left alone.
type EventUpdate struct {
	Name             *string
	StartDate        *time.Time
	EndDate          *time.Time
	Location         *string
	Attendees        *int
	Notes            *string
	SupportContactID *int64
}

// EventFilter narrows List. Mine restricts to events the caller supports.
type EventFilter struct {
	ContractID       string
	ClientID         *int64
	SupportContactID *int64
	Unassigned       bool
	Mine             bool
}

// Create adds an event to a signed contract. The client is taken from the
// contract. Holders of create_event may create events for any contract; the
// sales contact of the contract or its client may create them for theirs.
func (s *EventService) Create(ctx context.Context, contractID string, in EventInput) (*models.Event, error) {
	actor, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var event *models.Event
	err = s.inTx(ctx, "create event", func(ctx context.Context, tx dbx.DBTX) error {
		contract, err := s.loadContract(ctx, tx, contractID)
		if err != nil {
			return err
		}
		client, err := s.repomanager.Clients(tx).GetByID(ctx, contract.ClientID)
		if err != nil {
			return s.notFound(ctx, err, "client", contract.ClientID)
		}
		rule := auth.RequireOrOwner(auth.CreateEvent, auth.Subjects{Client: client, Contract: contract})
		if err := s.authorize(ctx, actor, rule); err != nil {
			return err
		}
		if !contract.IsSigned() {
			return common.NewError(common.ErrValidation, "contract %s is not signed", contract.ID)
		}

		event = &models.Event{
			Name:       strings.TrimSpace(in.Name),
			ContractID: contract.ID,
			ClientID:   contract.ClientID,
			StartDate:  in.StartDate.UTC(),
			EndDate:    in.EndDate.UTC(),
			Location:   strings.TrimSpace(in.Location),
			Attendees:  in.Attendees,
			Notes:      in.Notes,
			Contract:   contract,
		}
		if err := validateEvent(event); err != nil {
			return err
		}
		if in.SupportContactID != nil {
			if err := s.ensureSupport(ctx, tx, *in.SupportContactID); err != nil {
				return err
			}
			event.SupportContactID = in.SupportContactID
		}

		_, err = s.repomanager.Events(tx).Create(ctx, event)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "event created", "by", actor.ID, "event_id", event.ID, "contract_id", contractID)
	return event, nil
}

func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadEvent), func(ctx context.Context, _ *models.User) (*models.Event, error) {
		return s.load(ctx, s.db, id)
	})
}

func (s *EventService) List(ctx context.Context, f EventFilter) ([]*models.Event, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadEvent), func(ctx context.Context, actor *models.User) ([]*models.Event, error) {
		rf := events.Filter{
			ContractID:       f.ContractID,
			ClientID:         f.ClientID,
			SupportContactID: f.SupportContactID,
			Unassigned:       f.Unassigned,
		}
		if f.Mine {
			rf.SupportContactID = &actor.ID
		}
		list, err := s.repomanager.Events(s.db).List(ctx, rf)
		if err != nil {
			return nil, s.fail(ctx, "list events", err)
		}
		return list, nil
	})
}

// Update changes an event. Holders of update_event may edit any event; the
// support contact of the event and the sales contact of its contract may
// edit it too. A new support contact must have the support role.
func (s *EventService) Update(ctx context.Context, id int64, upd EventUpdate) (*models.Event, error) {
	actor, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var event *models.Event
	err = s.inTx(ctx, "update event", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if event, err = s.load(ctx, tx, id); err != nil {
			return err
		}
		if event.Contract, err = s.loadContract(ctx, tx, event.ContractID); err != nil {
			return err
		}
		rule := auth.RequireOrOwner(auth.UpdateEvent, auth.Subjects{Event: event})
		if err := s.authorize(ctx, actor, rule); err != nil {
			return err
		}
		if upd.SupportContactID != nil {
			if err := s.authorize(ctx, actor, auth.Require(auth.UpdateEvent)); err != nil {
				return err
			}
		}

		if upd.Name != nil {
			event.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.StartDate != nil {
			event.StartDate = upd.StartDate.UTC()
		}
		if upd.EndDate != nil {
			event.EndDate = upd.EndDate.UTC()
		}
		if upd.Location != nil {
			event.Location = strings.TrimSpace(*upd.Location)
		}
		if upd.Attendees != nil {
			event.Attendees = *upd.Attendees
		}
		if upd.Notes != nil {
			event.Notes = *upd.Notes
		}
		if err := validateEvent(event); err != nil {
			return err
		}
		if upd.SupportContactID != nil {
			if err := s.ensureSupport(ctx, tx, *upd.SupportContactID); err != nil {
				return err
			}
			event.SupportContactID = upd.SupportContactID
		}

		return s.repomanager.Events(tx).Update(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "event updated", "by", actor.ID, "event_id", event.ID)
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, id int64) error {
	_, err := auth.Run(ctx, s.guard, auth.Require(auth.DeleteEvent), func(ctx context.Context, actor *models.User) (struct{}, error) {
		err := s.inTx(ctx, "delete event", func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Events(tx).Delete(ctx, id); err != nil {
				return s.notFound(ctx, err, "event", id)
			}
			return nil
		})
		if err == nil {
			s.logger.Info(ctx, "event deleted", "by", actor.ID, "event_id", id)
		}
		return struct{}{}, err
	})
	return err
}

func (s *EventService) load(ctx context.Context, db dbx.DBTX, id int64) (*models.Event, error) {
	e, err := s.repomanager.Events(db).GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(ctx, err, "event", id)
	}
	return e, nil
}

func (s *EventService) loadContract(ctx context.Context, db dbx.DBTX, id string) (*models.Contract, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.NewError(common.ErrorNotFound, "contract %s not found", id)
	}
	c, err := s.repomanager.Contracts(db).GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(ctx, err, "contract", id)
	}
	return c, nil
}

// ensureSupport checks that id names a user with the support role.
func (s *EventService) ensureSupport(ctx context.Context, tx dbx.DBTX, id int64) error {
	u, err := s.loadUser(ctx, tx, id)
	if err != nil {
		return err
	}
	if u.RoleName() != auth.RoleSupport {
		return common.NewError(common.ErrValidation, "user %d is not a support user", id)
	}
	return nil
}

func validateEvent(e *models.Event) error {
	if err := validateRequired("event name", e.Name); err != nil {
		return err
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return common.NewError(common.ErrValidation, "start and end dates are required")
	}
	if e.EndDate.Before(e.StartDate) {
		return common.NewError(common.ErrValidation, "event cannot end before it starts")
	}
	if e.Attendees < 0 {
		return common.NewError(common.ErrValidation, "attendees cannot be negative")
	}
	return nil
}
