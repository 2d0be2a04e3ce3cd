package auth

import (
	"context"
	"errors"

	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/logging"
	"github.com/epicevents/crm/internal/models"
)

// UserLookup resolves the acting user from a token subject. Implementations
// return common.ErrorNotFound for unknown ids and load the user's role with
// its permissions.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Rule describes what an operation requires. An empty Permission only
// requires an authenticated user. When Ownership is set, a user lacking the
// permission is still admitted if IsOwner(user, Subjects) holds.
type Rule struct {
	Permission string
	Ownership  bool
	Subjects   Subjects
}

// Require is shorthand for a blanket-permission rule.
func Require(permission string) Rule {
	return Rule{Permission: permission}
}

// RequireOrOwner admits holders of permission and owners of s.
func RequireOrOwner(permission string, s Subjects) Rule {
	return Rule{Permission: permission, Ownership: true, Subjects: s}
}

// Guard is the precondition gate in front of every protected operation.
type Guard struct {
	store  TokenStore
	codec  *TokenCodec
	users  UserLookup
	logger logging.Logger
}

func NewGuard(store TokenStore, codec *TokenCodec, users UserLookup, logger logging.Logger) *Guard {
	return &Guard{store: store, codec: codec, users: users, logger: logger}
}

// Authenticate resolves the current user from the stored token.
func (g *Guard) Authenticate(ctx context.Context) (*models.User, error) {
	token, ok, err := g.store.Load()
	if err != nil {
		g.logger.Error(ctx, "reading session token failed", "error", err)
		return nil, common.Wrap(common.ErrStorage, err, "read session token")
	}
	if !ok {
		g.logger.Debug(ctx, "no session token")
		return nil, common.NewError(common.ErrAuthenticationRequired, "not logged in")
	}

	userID, err := g.codec.Validate(token)
	if err != nil {
		// expired and invalid look the same to the caller
		g.logger.Debug(ctx, "session token rejected", "reason", err)
		return nil, common.Wrap(common.ErrAuthenticationRequired, err, "session is no longer valid")
	}

	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			g.logger.Warn(ctx, "token subject no longer exists", "user_id", userID)
			return nil, common.NewError(common.ErrAuthenticationRequired, "session user no longer exists")
		}
		g.logger.Error(ctx, "loading acting user failed", "user_id", userID, "error", err)
		return nil, common.Wrap(common.ErrStorage, err, "load acting user")
	}
	return user, nil
}

// Check runs authentication, then the permission and ownership checks of
// rule, and returns the admitted user.
func (g *Guard) Check(ctx context.Context, rule Rule) (*models.User, error) {
	user, err := g.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.Authorize(ctx, user, rule); err != nil {
		return nil, err
	}
	return user, nil
}

// Authorize applies the permission and ownership checks of rule to an
// already authenticated user. Services call it when the ownership subjects
// can only be loaded after authentication.
func (g *Guard) Authorize(ctx context.Context, user *models.User, rule Rule) error {
	if user == nil {
		return common.NewError(common.ErrAuthenticationRequired, "not logged in")
	}
	if rule.Permission == "" || HasPermission(user, rule.Permission) {
		return nil
	}
	if !rule.Ownership {
		g.logger.Debug(ctx, "permission denied", "user", user.Email, "permission", rule.Permission)
		return common.NewError(common.ErrPermissionDenied, "missing permission %s", rule.Permission)
	}
	if !IsOwner(user, rule.Subjects) {
		g.logger.Debug(ctx, "permission denied, not the assigned contact", "user", user.Email, "permission", rule.Permission)
		return common.NewError(common.ErrPermissionDenied, "missing permission %s and not the assigned contact", rule.Permission)
	}
	g.logger.Debug(ctx, "admitted as assigned contact", "user", user.Email, "permission", rule.Permission)
	return nil
}

// Handler is a protected operation; actor is the admitted user.
type Handler[T any] func(ctx context.Context, actor *models.User) (T, error)

// Operation is a Handler with the guard already applied.
type Operation[T any] func(ctx context.Context) (T, error)

// Protect wraps h so that it only runs once g admits the caller under rule.
// On failure h is never called and the zero T is returned with the error.
func Protect[T any](g *Guard, rule Rule, h Handler[T]) Operation[T] {
	return func(ctx context.Context) (T, error) {
		actor, err := g.Check(ctx, rule)
		if err != nil {
			var zero T
			return zero, err
		}
		return h(WithActor(ctx, actor), actor)
	}
}

// Run applies rule and invokes h in one call.
func Run[T any](ctx context.Context, g *Guard, rule Rule, h Handler[T]) (T, error) {
	return Protect(g, rule, h)(ctx)
}

type ctxKey string

const actorKey ctxKey = "actor"

// WithActor attaches the admitted user to ctx.
func WithActor(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, actorKey, user)
}

// ActorFrom returns the user attached by WithActor.
func ActorFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(actorKey).(*models.User)
	return u, ok && u != nil
}
