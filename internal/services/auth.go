package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/models"
)

// AuthService opens and closes the operator's session.
type AuthService struct {
	base
	hasher *auth.Hasher
	codec  *auth.TokenCodec
	store  auth.TokenStore
	ttl    time.Duration
}

// Login verifies the credentials, issues a token and saves it in the token
// store. Unknown email and wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.NewError(common.ErrInvalidCredentials, "email and password are required")
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "login failed: unknown email", "email", email)
			return nil, common.NewError(common.ErrInvalidCredentials, "")
		}
		return nil, s.fail(ctx, "login", err)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.Warn(ctx, "login failed: wrong password", "email", email, "user_id", user.ID)
		return nil, common.NewError(common.ErrInvalidCredentials, "")
	}

	token, err := s.codec.Issue(user.ID, s.ttl)
	if err != nil {
		return nil, s.fail(ctx, "issue token", err)
	}
	if err := s.store.Save(token); err != nil {
		return nil, s.fail(ctx, "save session token", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID, "role", user.RoleName())
	return user, nil
}

// Logout discards the stored token. It succeeds when no session exists.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Clear(); err != nil {
		return s.fail(ctx, "clear session token", err)
	}
	s.logger.Info(ctx, "session closed")
	return nil
}

// WhoAmI returns the authenticated user with role and permissions.
func (s *AuthService) WhoAmI(ctx context.Context) (*models.User, error) {
	return auth.Run(ctx, s.guard, auth.Rule{}, func(ctx context.Context, actor *models.User) (*models.User, error) {
		return actor, nil
	})
}
