package services

import (
	"context"
	"math"

	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/models"
	"github.com/epicevents/crm/internal/repositories/contracts"
	"github.com/google/uuid"
)

// ContractService manages contracts and their payments.
type ContractService struct {
	base
}

// ContractUpdate holds optional changes. When TotalAmount changes without
// RemainingAmount, the amount already paid is preserved.
type ContractUpdate struct {
	TotalAmount     *float64
	RemainingAmount *float64
	Status          *string
	SalesContactID  *int64
}

// ContractFilter narrows List. Unsigned is shorthand for Status "unsigned";
// Mine restricts to contracts of the caller.
type ContractFilter struct {
	ClientID       *int64
	SalesContactID *int64
	Status         string
	Unpaid         bool
	Unsigned       bool
	Mine           bool
}

// Create opens a contract for an existing client. The client's sales
// contact becomes the contract's and nothing is paid yet.
func (s *ContractService) Create(ctx context.Context, clientID int64, total float64, status string) (*models.Contract, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.CreateContract), func(ctx context.Context, actor *models.User) (*models.Contract, error) {
		if err := validateAmount("total amount", total); err != nil {
			return nil, err
		}
		status, err := normalizeStatus(status)
		if err != nil {
			return nil, err
		}

		contract := &models.Contract{
			ID:              uuid.NewString(),
			ClientID:        clientID,
			TotalAmount:     roundCents(total),
			RemainingAmount: roundCents(total),
			CreationDate:    s.now(),
			Status:          status,
		}
		err = s.inTx(ctx, "create contract", func(ctx context.Context, tx dbx.DBTX) error {
			client, err := s.repomanager.Clients(tx).GetByID(ctx, clientID)
			if err != nil {
				return s.notFound(ctx, err, "client", clientID)
			}
			contract.SalesContactID = client.SalesContactID
			_, err = s.repomanager.Contracts(tx).Create(ctx, contract)
			return err
		})
		if err != nil {
			return nil, err
		}

		s.logger.Info(ctx, "contract created", "by", actor.ID, "contract_id", contract.ID, "client_id", clientID)
		return contract, nil
	})
}

func (s *ContractService) Get(ctx context.Context, id string) (*models.Contract, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadContract), func(ctx context.Context, _ *models.User) (*models.Contract, error) {
		return s.load(ctx, s.db, id)
	})
}

func (s *ContractService) List(ctx context.Context, f ContractFilter) ([]*models.Contract, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadContract), func(ctx context.Context, actor *models.User) ([]*models.Contract, error) {
		rf := contracts.Filter{ClientID: f.ClientID, SalesContactID: f.SalesContactID, Unpaid: f.Unpaid}
		if f.Mine {
			rf.SalesContactID = &actor.ID
		}
		if f.Status != "" {
			status, err := normalizeStatus(f.Status)
			if err != nil {
				return nil, err
			}
			rf.Status = status
		}
		if f.Unsigned {
			if rf.Status == common.ContractSigned {
				return nil, common.NewError(common.ErrValidation, "unsigned conflicts with status %q", f.Status)
			}
			rf.Status = common.ContractUnsigned
		}

		list, err := s.repomanager.Contracts(s.db).List(ctx, rf)
		if err != nil {
			return nil, s.fail(ctx, "list contracts", err)
		}
		return list, nil
	})
}

// Update changes a contract. Holders of update_contract may edit any
// contract; the sales contact of the contract or of its client may edit it
// too.
func (s *ContractService) Update(ctx context.Context, id string, upd ContractUpdate) (*models.Contract, error) {
	actor, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var contract *models.Contract
	err = s.inTx(ctx, "update contract", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if contract, err = s.loadOwned(ctx, tx, actor, id); err != nil {
			return err
		}
		if upd.SalesContactID != nil {
			if err := s.authorize(ctx, actor, auth.Require(auth.UpdateContract)); err != nil {
				return err
			}
		}

		paid := contract.PaidAmount()
		if upd.TotalAmount != nil {
			if err := validateAmount("total amount", *upd.TotalAmount); err != nil {
				return err
			}
			contract.TotalAmount = roundCents(*upd.TotalAmount)
			contract.RemainingAmount = roundCents(contract.TotalAmount - paid)
		}
		if upd.RemainingAmount != nil {
			contract.RemainingAmount = roundCents(*upd.RemainingAmount)
		}
		if contract.RemainingAmount < 0 || contract.RemainingAmount > contract.TotalAmount {
			return common.NewError(common.ErrValidation, "remaining amount %.2f must be between 0 and the total %.2f",
				contract.RemainingAmount, contract.TotalAmount)
		}
		if upd.Status != nil {
			if contract.Status, err = normalizeStatus(*upd.Status); err != nil {
				return err
			}
		}
		if upd.SalesContactID != nil {
			if _, err := s.loadUser(ctx, tx, *upd.SalesContactID); err != nil {
				return err
			}
			contract.SalesContactID = upd.SalesContactID
		}

		return s.repomanager.Contracts(tx).Update(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "contract updated", "by", actor.ID, "contract_id", contract.ID)
	return contract, nil
}

// RecordPayment deducts amount from the remaining balance. The amount must
// be positive and not exceed what is left to pay.
func (s *ContractService) RecordPayment(ctx context.Context, id string, amount float64) (*models.Contract, error) {
	actor, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var contract *models.Contract
	err = s.inTx(ctx, "record payment", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if contract, err = s.loadOwned(ctx, tx, actor, id); err != nil {
			return err
		}
		if err := validateAmount("payment", amount); err != nil {
			return err
		}
		amount = roundCents(amount)
		if amount > contract.RemainingAmount {
			s.logger.Warn(ctx, "payment exceeds remaining amount", "contract_id", id, "amount", amount, "remaining", contract.RemainingAmount)
			return common.NewError(common.ErrValidation, "payment %.2f exceeds the remaining amount %.2f", amount, contract.RemainingAmount)
		}
		contract.RemainingAmount = roundCents(contract.RemainingAmount - amount)
		return s.repomanager.Contracts(tx).Update(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "payment recorded", "by", actor.ID, "contract_id", id, "amount", amount)
	return contract, nil
}

func (s *ContractService) Delete(ctx context.Context, id string) error {
	_, err := auth.Run(ctx, s.guard, auth.Require(auth.DeleteContract), func(ctx context.Context, actor *models.User) (struct{}, error) {
		if _, perr := uuid.Parse(id); perr != nil {
			return struct{}{}, common.NewError(common.ErrorNotFound, "contract %s not found", id)
		}
		err := s.inTx(ctx, "delete contract", func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Contracts(tx).Delete(ctx, id); err != nil {
				return s.notFound(ctx, err, "contract", id)
			}
			return nil
		})
		if err == nil {
			s.logger.Info(ctx, "contract deleted", "by", actor.ID, "contract_id", id)
		}
		return struct{}{}, err
	})
	return err
}

// load fetches a contract; malformed ids are reported as not found.
func (s *ContractService) load(ctx context.Context, db dbx.DBTX, id string) (*models.Contract, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.NewError(common.ErrorNotFound, "contract %s not found", id)
	}
	c, err := s.repomanager.Contracts(db).GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(ctx, err, "contract", id)
	}
	return c, nil
}

// loadOwned loads the contract with its client and applies the
// update_contract rule with both as ownership subjects.
func (s *ContractService) loadOwned(ctx context.Context, tx dbx.DBTX, actor *models.User, id string) (*models.Contract, error) {
	contract, err := s.load(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	client, err := s.repomanager.Clients(tx).GetByID(ctx, contract.ClientID)
	if err != nil {
		return nil, s.notFound(ctx, err, "client", contract.ClientID)
	}
	rule := auth.RequireOrOwner(auth.UpdateContract, auth.Subjects{Client: client, Contract: contract})
	if err := s.authorize(ctx, actor, rule); err != nil {
		return nil, err
	}
	return contract, nil
}

func validateAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return common.NewError(common.ErrValidation, "%s must be a positive number", field)
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
