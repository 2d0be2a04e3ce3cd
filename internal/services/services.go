// Package services implements the CRM operations on top of the access
// guard and the repositories. Every method returns a *common.Error on
// failure; mutations run in a single transaction.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/logging"
	"github.com/epicevents/crm/internal/models"
	"github.com/epicevents/crm/internal/repositories/repomanager"
)

// Deps bundles the collaborators shared by all services.
type Deps struct {
	DB       *sql.DB
	Repos    repomanager.RepositoryManager
	Guard    *auth.Guard
	Hasher   *auth.Hasher
	Codec    *auth.TokenCodec
	Store    auth.TokenStore
	TokenTTL time.Duration
	Logger   logging.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Services groups the entity services built from one Deps.
type Services struct {
	Auth      *AuthService
	Users     *UserService
	Clients   *ClientService
	Contracts *ContractService
	Events    *EventService
}

func New(d Deps) *Services {
	b := newBase(d)
	return &Services{
		Auth:      &AuthService{base: b, hasher: d.Hasher, codec: d.Codec, store: d.Store, ttl: d.TokenTTL},
		Users:     &UserService{base: b, hasher: d.Hasher},
		Clients:   &ClientService{base: b},
		Contracts: &ContractService{base: b},
		Events:    &EventService{base: b},
	}
}

type base struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *auth.Guard
	logger      logging.Logger
	clock       func() time.Time
}

func newBase(d Deps) base {
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return base{db: d.DB, repomanager: d.Repos, guard: d.Guard, logger: logger, clock: clock}
}

// now is truncated to microseconds so values survive both databases.
func (b *base) now() time.Time {
	return b.clock().UTC().Truncate(time.Microsecond)
}

// inTx runs fn in a transaction and maps whatever it returns.
func (b *base) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if err := dbx.WithTx(ctx, b.db, nil, fn); err != nil {
		return b.fail(ctx, op, err)
	}
	return nil
}

// fail turns a repository error into a tagged one. Errors that already
// carry a kind pass through; unknown ones become storage errors and are
// logged.
func (b *base) fail(ctx context.Context, op string, err error) error {
	var tagged *common.Error
	switch {
	case errors.As(err, &tagged):
		return tagged
	case errors.Is(err, common.ErrorNotFound):
		return common.NewError(common.ErrorNotFound, "%s: record not found", op)
	case errors.Is(err, common.ErrAlreadyExists):
		return common.NewError(common.ErrAlreadyExists, "%s: record already exists", op)
	}
	b.logger.Error(ctx, "storage failure", "op", op, "error", err)
	return common.Wrap(common.ErrStorage, err, op)
}

// notFound maps a missing record to a readable not-found error.
func (b *base) notFound(ctx context.Context, err error, what string, id any) error {
	if errors.Is(err, common.ErrorNotFound) {
		b.logger.Debug(ctx, "record not found", "what", what, "id", id)
		return common.NewError(common.ErrorNotFound, "%s %v not found", what, id)
	}
	return b.fail(ctx, "load "+what, err)
}

// authenticate runs the token steps of the guard outside any transaction.
func (b *base) authenticate(ctx context.Context) (*models.User, error) {
	return b.guard.Authenticate(ctx)
}

func (b *base) authorize(ctx context.Context, actor *models.User, rule auth.Rule) error {
	return b.guard.Authorize(ctx, actor, rule)
}

// loadUser resolves an assignment target inside tx.
func (b *base) loadUser(ctx context.Context, tx dbx.DBTX, id int64) (*models.User, error) {
	u, err := b.repomanager.Users(tx).GetByID(ctx, id)
	if err != nil {
		return nil, b.notFound(ctx, err, "user", id)
	}
	return u, nil
}
