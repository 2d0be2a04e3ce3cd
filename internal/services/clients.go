package services

import (
	"context"
	"errors"
	"strings"

	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/models"
	"github.com/epicevents/crm/internal/repositories/clients"
)

// ClientService manages customer records.
type ClientService struct {
	base
}

type ClientInput struct {
	FullName    string
	Email       string
	Phone       string
	CompanyName string
}

// ClientUpdate holds optional changes. SalesContactID re-assigns the
// client, and with it the client's contracts.
type ClientUpdate struct {
	FullName       *string
	Email          *string
	Phone          *string
	CompanyName    *string
	SalesContactID *int64
}

// ClientFilter narrows List. Mine restricts to clients of the caller.
type ClientFilter struct {
	SalesContactID *int64
	Unassigned     bool
	Mine           bool
}

// Create registers a client; the caller becomes its sales contact.
func (s *ClientService) Create(ctx context.Context, in ClientInput) (*models.Client, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.CreateClient), func(ctx context.Context, actor *models.User) (*models.Client, error) {
		in.Email = strings.TrimSpace(in.Email)
		if err := validateRequired("full name", in.FullName); err != nil {
			return nil, err
		}
		if err := validateEmail(in.Email); err != nil {
			return nil, err
		}

		now := s.now()
		client := &models.Client{
			FullName:       strings.TrimSpace(in.FullName),
			Email:          in.Email,
			Phone:          strings.TrimSpace(in.Phone),
			CompanyName:    strings.TrimSpace(in.CompanyName),
			CreationDate:   now,
			LastUpdateDate: now,
			SalesContactID: &actor.ID,
		}
		err := s.inTx(ctx, "create client", func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.ensureEmailFree(ctx, tx, client.Email, 0); err != nil {
				return err
			}
			_, err := s.repomanager.Clients(tx).Create(ctx, client)
			return err
		})
		if err != nil {
			return nil, err
		}

		s.logger.Info(ctx, "client created", "by", actor.ID, "client_id", client.ID)
		return client, nil
	})
}

func (s *ClientService) Get(ctx context.Context, id int64) (*models.Client, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadClient), func(ctx context.Context, _ *models.User) (*models.Client, error) {
		return s.load(ctx, s.db, id)
	})
}

func (s *ClientService) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadClient), func(ctx context.Context, _ *models.User) (*models.Client, error) {
		c, err := s.repomanager.Clients(s.db).GetByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			return nil, s.notFound(ctx, err, "client", email)
		}
		return c, nil
	})
}

func (s *ClientService) List(ctx context.Context, f ClientFilter) ([]*models.Client, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadClient), func(ctx context.Context, actor *models.User) ([]*models.Client, error) {
		rf := clients.Filter{SalesContactID: f.SalesContactID, Unassigned: f.Unassigned}
		if f.Mine {
			rf.SalesContactID = &actor.ID
		}
		list, err := s.repomanager.Clients(s.db).List(ctx, rf)
		if err != nil {
			return nil, s.fail(ctx, "list clients", err)
		}
		return list, nil
	})
}

// Update changes a client. Holders of update_client may edit any client;
// the assigned sales contact may edit their own.
func (s *ClientService) Update(ctx context.Context, id int64, upd ClientUpdate) (*models.Client, error) {
	actor, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var client *models.Client
	err = s.inTx(ctx, "update client", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if client, err = s.load(ctx, tx, id); err != nil {
			return err
		}
		if err := s.authorize(ctx, actor, auth.RequireOrOwner(auth.UpdateClient, auth.Subjects{Client: client})); err != nil {
			return err
		}
		// Handing a client over is not an owner's call.
		if upd.SalesContactID != nil {
			if err := s.authorize(ctx, actor, auth.Require(auth.UpdateClient)); err != nil {
				return err
			}
		}

		if upd.FullName != nil {
			if err := validateRequired("full name", *upd.FullName); err != nil {
				return err
			}
			client.FullName = strings.TrimSpace(*upd.FullName)
		}
		if upd.Email != nil {
			email := strings.TrimSpace(*upd.Email)
			if err := validateEmail(email); err != nil {
				return err
			}
			if err := s.ensureEmailFree(ctx, tx, email, client.ID); err != nil {
				return err
			}
			client.Email = email
		}
		if upd.Phone != nil {
			client.Phone = strings.TrimSpace(*upd.Phone)
		}
		if upd.CompanyName != nil {
			client.CompanyName = strings.TrimSpace(*upd.CompanyName)
		}
		reassigned := false
		if upd.SalesContactID != nil {
			if _, err := s.loadUser(ctx, tx, *upd.SalesContactID); err != nil {
				return err
			}
			reassigned = client.SalesContactID == nil || *client.SalesContactID != *upd.SalesContactID
			client.SalesContactID = upd.SalesContactID
		}
		client.LastUpdateDate = s.now()

		if err := s.repomanager.Clients(tx).Update(ctx, client); err != nil {
			return err
		}
		if reassigned {
			return s.repomanager.Contracts(tx).ReassignForClient(ctx, client.ID, client.SalesContactID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "client updated", "by", actor.ID, "client_id", client.ID)
	return client, nil
}

func (s *ClientService) Delete(ctx context.Context, id int64) error {
	_, err := auth.Run(ctx, s.guard, auth.Require(auth.DeleteClient), func(ctx context.Context, actor *models.User) (struct{}, error) {
		err := s.inTx(ctx, "delete client", func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Clients(tx).Delete(ctx, id); err != nil {
				return s.notFound(ctx, err, "client", id)
			}
			return nil
		})
		if err == nil {
			s.logger.Info(ctx, "client deleted", "by", actor.ID, "client_id", id)
		}
		return struct{}{}, err
	})
	return err
}

func (s *ClientService) load(ctx context.Context, db dbx.DBTX, id int64) (*models.Client, error) {
	c, err := s.repomanager.Clients(db).GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(ctx, err, "client", id)
	}
	return c, nil
}

func (s *ClientService) ensureEmailFree(ctx context.Context, tx dbx.DBTX, email string, selfID int64) error {
	other, err := s.repomanager.Clients(tx).GetByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return s.fail(ctx, "check email", err)
	case other.ID != selfID:
		return common.NewError(common.ErrAlreadyExists, "a client with email %s already exists", email)
	}
	return nil
}
