package cli

import (
	"context"
	"fmt"

	"github.com/epicevents/crm/internal/models"
	"github.com/epicevents/crm/internal/services"
	"github.com/spf13/pflag"
)

func (a *App) clientCmd() *Command {
	return &Command{
		Name:    "client",
		Summary: "Manage clients",
		Subcommands: []*Command{
			a.clientCreateCmd(),
			a.clientListCmd(),
			a.clientGetCmd(),
			a.clientUpdateCmd(),
			a.clientDeleteCmd(),
		},
	}
}

func (a *App) clientCreateCmd() *Command {
	var in services.ClientInput
	return &Command{
		Name:    "create",
		Summary: "Register a client; you become its sales contact",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("create")
			fs.StringVar(&in.FullName, "name", "", "client full name")
			fs.StringVar(&in.Email, "email", "", "client email")
			fs.StringVar(&in.Phone, "phone", "", "phone number")
			fs.StringVar(&in.CompanyName, "company", "", "company name")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if err := a.required(&in.FullName, "Full name"); err != nil {
				return err
			}
			if err := a.required(&in.Email, "Email"); err != nil {
				return err
			}
			c, err := a.svc.Clients.Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Client %d created.\n", c.ID)
			return nil
		},
	}
}

func (a *App) clientListCmd() *Command {
	var (
		f     services.ClientFilter
		sales int64
	)
	return &Command{
		Name:    "list",
		Summary: "List clients",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("list")
			fs.BoolVar(&f.Mine, "mine", false, "only clients assigned to you")
			fs.BoolVar(&f.Unassigned, "unassigned", false, "only clients without a sales contact")
			fs.Int64Var(&sales, "sales-contact", 0, "only clients of this sales contact id")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if sales != 0 {
				f.SalesContactID = &sales
			}
			list, err := a.svc.Clients.List(ctx, f)
			if err != nil {
				return err
			}
			a.printClients(list)
			return nil
		},
	}
}

func (a *App) clientGetCmd() *Command {
	var email string
	return &Command{
		Name:    "get",
		Summary: "Show one client",
		Usage:   "crm client get <id> | --email <email>",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("get")
			fs.StringVar(&email, "email", "", "look the client up by email instead of id")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			var (
				c   *models.Client
				err error
			)
			if email != "" {
				c, err = a.svc.Clients.GetByEmail(ctx, email)
			} else {
				var id int64
				if id, err = a.intIDArg(args, "client"); err != nil {
					return err
				}
				c, err = a.svc.Clients.Get(ctx, id)
			}
			if err != nil {
				return err
			}
			a.printClient(c)
			return nil
		},
	}
}

func (a *App) clientUpdateCmd() *Command {
	var fs *pflag.FlagSet
	var name, email, phone, company string
	var sales int64
	return &Command{
		Name:    "update",
		Summary: "Change a client (assigned sales contacts may edit their own)",
		Usage:   "crm client update <id> [flags]",
		Flags: func() *pflag.FlagSet {
			fs = newFlagSet("update")
			fs.StringVar(&name, "name", "", "new full name")
			fs.StringVar(&email, "email", "", "new email")
			fs.StringVar(&phone, "phone", "", "new phone number")
			fs.StringVar(&company, "company", "", "new company name")
			fs.Int64Var(&sales, "sales-contact", 0, "re-assign to this sales contact id")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := a.intIDArg(args, "client")
			if err != nil {
				return err
			}
			var upd services.ClientUpdate
			if fs.Changed("name") {
				upd.FullName = &name
			}
			if fs.Changed("email") {
				upd.Email = &email
			}
			if fs.Changed("phone") {
				upd.Phone = &phone
			}
			if fs.Changed("company") {
				upd.CompanyName = &company
			}
			if fs.Changed("sales-contact") {
				upd.SalesContactID = &sales
			}
			if upd == (services.ClientUpdate{}) {
				return usageErrorf("nothing to update, pass at least one of --name, --email, --phone, --company, --sales-contact")
			}
			c, err := a.svc.Clients.Update(ctx, id, upd)
			if err != nil {
				return err
			}
			a.printClient(c)
			return nil
		},
	}
}

func (a *App) clientDeleteCmd() *Command {
	var yes bool
	return &Command{
		Name:    "delete",
		Summary: "Delete a client with its contracts and events",
		Usage:   "crm client delete <id> [--yes]",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("delete")
			fs.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := a.intIDArg(args, "client")
			if err != nil {
				return err
			}
			if ok, err := a.confirm(yes, fmt.Sprintf("Delete client %d and all its contracts and events?", id)); err != nil || !ok {
				return err
			}
			if err := a.svc.Clients.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Client %d deleted.\n", id)
			return nil
		},
	}
}
