package cli

import (
	"context"
	"fmt"

	"github.com/epicevents/crm/internal/models"
	"github.com/epicevents/crm/internal/services"
	"github.com/spf13/pflag"
)

func (a *App) userCmd() *Command {
	return &Command{
		Name:    "user",
		Summary: "Manage staff accounts",
		Subcommands: []*Command{
			a.userCreateCmd(),
			a.userListCmd(),
			a.userGetCmd(),
			a.userUpdateCmd(),
			a.userDeleteCmd(),
		},
	}
}

func (a *App) userCreateCmd() *Command {
	var in services.UserInput
	return &Command{
		Name:    "create",
		Summary: "Create a staff account",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("create")
			fs.StringVar(&in.FullName, "name", "", "full name")
			fs.StringVar(&in.Email, "email", "", "email address")
			fs.StringVar(&in.Password, "password", "", "initial password (prompted when omitted)")
			fs.StringVar(&in.Role, "role", "", "management, commercial, support or admin")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			for _, p := range []struct {
				v      *string
				prompt string
			}{
				{&in.FullName, "Full name"},
				{&in.Email, "Email"},
				{&in.Role, "Role"},
			} {
				if err := a.required(p.v, p.prompt); err != nil {
					return err
				}
			}
			if err := a.requiredPassword(&in.Password, "Password"); err != nil {
				return err
			}
			u, err := a.svc.Users.Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "User %d created.\n", u.ID)
			return nil
		},
	}
}

func (a *App) userListCmd() *Command {
	var role string
	return &Command{
		Name:    "list",
		Summary: "List staff accounts",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("list")
			fs.StringVar(&role, "role", "", "only users with this role")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			users, err := a.svc.Users.List(ctx, role)
			if err != nil {
				return err
			}
			a.printUsers(users)
			return nil
		},
	}
}

func (a *App) userGetCmd() *Command {
	var email string
	return &Command{
		Name:    "get",
		Summary: "Show one staff account",
		Usage:   "crm user get <id> | --email <email>",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("get")
			fs.StringVar(&email, "email", "", "look the user up by email instead of id")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			var (
				u   *models.User
				err error
			)
			if email != "" {
				u, err = a.svc.Users.GetByEmail(ctx, email)
			} else {
				var id int64
				if id, err = a.intIDArg(args, "user"); err != nil {
					return err
				}
				u, err = a.svc.Users.Get(ctx, id)
			}
			if err != nil {
				return err
			}
			a.printUser(u)
			return nil
		},
	}
}

func (a *App) userUpdateCmd() *Command {
	var fs *pflag.FlagSet
	var name, email, password, role string
	return &Command{
		Name:    "update",
		Summary: "Change a staff account",
		Usage:   "crm user update <id> [flags]",
		Flags: func() *pflag.FlagSet {
			fs = newFlagSet("update")
			fs.StringVar(&name, "name", "", "new full name")
			fs.StringVar(&email, "email", "", "new email address")
			fs.StringVar(&password, "password", "", "new password")
			fs.StringVar(&role, "role", "", "new role")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := a.intIDArg(args, "user")
			if err != nil {
				return err
			}
			var upd services.UserUpdate
			if fs.Changed("name") {
				upd.FullName = &name
			}
			if fs.Changed("email") {
				upd.Email = &email
			}
			if fs.Changed("password") {
				upd.Password = &password
			}
			if fs.Changed("role") {
				upd.Role = &role
			}
			if upd == (services.UserUpdate{}) {
				return usageErrorf("nothing to update, pass at least one of --name, --email, --password, --role")
			}
			u, err := a.svc.Users.Update(ctx, id, upd)
			if err != nil {
				return err
			}
			a.printUser(u)
			return nil
		},
	}
}

func (a *App) userDeleteCmd() *Command {
	var yes bool
	return &Command{
		Name:    "delete",
		Summary: "Delete a staff account",
		Usage:   "crm user delete <id> [--yes]",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("delete")
			fs.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := a.intIDArg(args, "user")
			if err != nil {
				return err
			}
			if ok, err := a.confirm(yes, fmt.Sprintf("Delete user %d?", id)); err != nil || !ok {
				return err
			}
			if err := a.svc.Users.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "User %d deleted.\n", id)
			return nil
		},
	}
}
