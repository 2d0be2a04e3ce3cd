package cli

import (
	"context"
	"fmt"

	"github.com/epicevents/crm/internal/services"
	"github.com/spf13/pflag"
)

// initCmd migrates and seeds the database, then optionally creates the
// first administrator.
func (a *App) initCmd() *Command {
	var in services.UserInput
	return &Command{
		Name:    "init",
		Summary: "Create the schema, seed roles and optionally the first admin",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("init")
			fs.StringVar(&in.Email, "admin-email", "", "email of the first administrator")
			fs.StringVar(&in.Password, "admin-password", "", "password of the first administrator")
			fs.StringVar(&in.FullName, "admin-name", "Administrator", "full name of the first administrator")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return usageErrorf("init takes no arguments")
			}
			if a.setup != nil {
				if err := a.setup(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintln(a.out, "Database is up to date.")

			if in.Email == "" {
				return nil
			}
			if err := a.requiredPassword(&in.Password, "Admin password"); err != nil {
				return err
			}
			u, err := a.svc.Users.Bootstrap(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Administrator %s created (id %d).\n", u.Email, u.ID)
			return nil
		},
	}
}

func (a *App) loginCmd() *Command {
	var email, password string
	return &Command{
		Name:    "login",
		Summary: "Log in and store a session token",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("login")
			fs.StringVarP(&email, "email", "e", "", "account email")
			fs.StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if err := a.required(&email, "Email"); err != nil {
				return err
			}
			if err := a.requiredPassword(&password, "Password"); err != nil {
				return err
			}
			u, err := a.svc.Auth.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s (%s).\n", u.FullName, u.RoleName())
			return nil
		},
	}
}

func (a *App) logoutCmd() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Forget the stored session token",
		Run: func(ctx context.Context, _ []string) error {
			if err := a.svc.Auth.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the logged-in user",
		Run: func(ctx context.Context, _ []string) error {
			u, err := a.svc.Auth.WhoAmI(ctx)
			if err != nil {
				return err
			}
			a.printUser(u)
			return nil
		},
	}
}
