package services

import (
	"context"
	"errors"
	"strings"

	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/models"
)

// UserService manages staff accounts.
type UserService struct {
	base
	hasher *auth.Hasher
}

// UserInput carries the fields of a new user.
type UserInput struct {
	FullName string
	Email    string
	Password string
	Role     string
}

// UserUpdate holds optional changes; nil fields are left alone.
type UserUpdate struct {
	FullName *string
	Email    *string
	Password *string
	Role     *string
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.CreateUser), func(ctx context.Context, actor *models.User) (*models.User, error) {
		in.Email = strings.TrimSpace(in.Email)
		if err := validateRequired("full name", in.FullName); err != nil {
			return nil, err
		}
		if err := validateEmail(in.Email); err != nil {
			return nil, err
		}
		if err := validatePassword(in.Password); err != nil {
			return nil, err
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, s.fail(ctx, "hash password", err)
		}

		var created *models.User
		err = s.inTx(ctx, "create user", func(ctx context.Context, tx dbx.DBTX) error {
			role, err := s.role(ctx, tx, in.Role)
			if err != nil {
				return err
			}
			if err := s.ensureEmailFree(ctx, tx, in.Email, 0); err != nil {
				return err
			}
			created, err = s.repomanager.Users(tx).Create(ctx, &models.User{
				FullName:     strings.TrimSpace(in.FullName),
				Email:        in.Email,
				PasswordHash: hash,
				Role:         role,
				CreatedAt:    s.now(),
			})
			return err
		})
		if err != nil {
			return nil, err
		}

		s.logger.Info(ctx, "user created", "by", actor.ID, "user_id", created.ID, "role", created.RoleName())
		return created, nil
	})
}

// Bootstrap creates the first admin account. It runs without a session and
// refuses once any user exists.
func (s *UserService) Bootstrap(ctx context.Context, in UserInput) (*models.User, error) {
	in.Role = auth.RoleAdmin
	in.Email = strings.TrimSpace(in.Email)
	if err := validateRequired("full name", in.FullName); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.fail(ctx, "hash password", err)
	}

	var created *models.User
	err = s.inTx(ctx, "bootstrap admin", func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Users(tx).Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return common.NewError(common.ErrAlreadyExists, "users already exist, log in as an administrator instead")
		}
		role, err := s.role(ctx, tx, in.Role)
		if err != nil {
			return err
		}
		created, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			FullName:     strings.TrimSpace(in.FullName),
			Email:        in.Email,
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    s.now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "administrator bootstrapped", "user_id", created.ID)
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadUser), func(ctx context.Context, _ *models.User) (*models.User, error) {
		return s.loadUser(ctx, s.db, id)
	})
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadUser), func(ctx context.Context, _ *models.User) (*models.User, error) {
		u, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			return nil, s.notFound(ctx, err, "user", email)
		}
		return u, nil
	})
}

// List returns users, optionally restricted to one role.
func (s *UserService) List(ctx context.Context, role string) ([]*models.User, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.ReadUser), func(ctx context.Context, _ *models.User) ([]*models.User, error) {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			if _, ok := auth.DefaultRoles[role]; !ok {
				return nil, unknownRole(role)
			}
		}
		users, err := s.repomanager.Users(s.db).List(ctx, role)
		if err != nil {
			return nil, s.fail(ctx, "list users", err)
		}
		return users, nil
	})
}

func (s *UserService) Update(ctx context.Context, id int64, upd UserUpdate) (*models.User, error) {
	return auth.Run(ctx, s.guard, auth.Require(auth.UpdateUser), func(ctx context.Context, actor *models.User) (*models.User, error) {
		var hash string
		if upd.Password != nil {
			if err := validatePassword(*upd.Password); err != nil {
				return nil, err
			}
			var err error
			if hash, err = s.hasher.Hash(*upd.Password); err != nil {
				return nil, s.fail(ctx, "hash password", err)
			}
		}

		var user *models.User
		err := s.inTx(ctx, "update user", func(ctx context.Context, tx dbx.DBTX) error {
			var err error
			if user, err = s.loadUser(ctx, tx, id); err != nil {
				return err
			}
			if upd.FullName != nil {
				if err := validateRequired("full name", *upd.FullName); err != nil {
					return err
				}
				user.FullName = strings.TrimSpace(*upd.FullName)
			}
			if upd.Email != nil {
				email := strings.TrimSpace(*upd.Email)
				if err := validateEmail(email); err != nil {
					return err
				}
				if err := s.ensureEmailFree(ctx, tx, email, user.ID); err != nil {
					return err
				}
				user.Email = email
			}
			if upd.Role != nil {
				if user.Role, err = s.role(ctx, tx, *upd.Role); err != nil {
					return err
				}
			}
			if hash != "" {
				user.PasswordHash = hash
			}
			return s.repomanager.Users(tx).Update(ctx, user)
		})
		if err != nil {
			return nil, err
		}

		s.logger.Info(ctx, "user updated", "by", actor.ID, "user_id", user.ID)
		return user, nil
	})
}

// Delete removes a user. Operators cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	_, err := auth.Run(ctx, s.guard, auth.Require(auth.DeleteUser), func(ctx context.Context, actor *models.User) (struct{}, error) {
		if actor.ID == id {
			return struct{}{}, common.NewError(common.ErrValidation, "you cannot delete your own account")
		}
		err := s.inTx(ctx, "delete user", func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Users(tx).Delete(ctx, id); err != nil {
				return s.notFound(ctx, err, "user", id)
			}
			return nil
		})
		if err == nil {
			s.logger.Info(ctx, "user deleted", "by", actor.ID, "user_id", id)
		}
		return struct{}{}, err
	})
	return err
}

func (s *UserService) role(ctx context.Context, tx dbx.DBTX, name string) (*models.Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	role, err := s.repomanager.Roles(tx).GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, unknownRole(name)
		}
		return nil, s.fail(ctx, "load role", err)
	}
	return role, nil
}

func unknownRole(name string) error {
	return common.NewError(common.ErrValidation, "unknown role %q (want one of %s)", name, strings.Join(auth.RoleNames(), ", "))
}

// ensureEmailFree fails when email belongs to a user other than selfID.
func (s *UserService) ensureEmailFree(ctx context.Context, tx dbx.DBTX, email string, selfID int64) error {
	other, err := s.repomanager.Users(tx).GetByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return s.fail(ctx, "check email", err)
	case other.ID != selfID:
		return common.NewError(common.ErrAlreadyExists, "email %s is already in use", email)
	}
	return nil
}
