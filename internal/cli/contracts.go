package cli

import (
	"context"
	"fmt"

	"github.com/epicevents/crm/internal/services"
	"github.com/spf13/pflag"
)

func (a *App) contractCmd() *Command {
	return &Command{
		Name:    "contract",
		Summary: "Manage contracts and payments",
		Subcommands: []*Command{
			a.contractCreateCmd(),
			a.contractListCmd(),
			a.contractGetCmd(),
			a.contractUpdateCmd(),
			a.contractPayCmd(),
			a.contractDeleteCmd(),
		},
	}
}

func (a *App) contractCreateCmd() *Command {
	var client, total, status string
	return &Command{
		Name:    "create",
		Summary: "Open a contract for a client",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("create")
			fs.StringVar(&client, "client", "", "client id")
			fs.StringVar(&total, "total", "", "total amount")
			fs.StringVar(&status, "status", "unsigned", "signed or unsigned")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if err := a.required(&client, "Client id"); err != nil {
				return err
			}
			if err := a.required(&total, "Total amount"); err != nil {
				return err
			}
			clientID, err := parseID(client, "client")
			if err != nil {
				return err
			}
			amount, err := parseAmount(total, "total amount")
			if err != nil {
				return err
			}
			c, err := a.svc.Contracts.Create(ctx, clientID, amount, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Contract %s created.\n", c.ID)
			return nil
		},
	}
}

func (a *App) contractListCmd() *Command {
	var (
		f             services.ContractFilter
		client, sales int64
	)
	return &Command{
		Name:    "list",
		Summary: "List contracts",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("list")
			fs.BoolVar(&f.Mine, "mine", false, "only contracts assigned to you")
			fs.BoolVar(&f.Unsigned, "unsigned", false, "only unsigned contracts")
			fs.BoolVar(&f.Unpaid, "unpaid", false, "only contracts with an amount left to pay")
			fs.StringVar(&f.Status, "status", "", "only contracts with this status")
			fs.Int64Var(&client, "client", 0, "only contracts of this client id")
			fs.Int64Var(&sales, "sales-contact", 0, "only contracts of this sales contact id")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if client != 0 {
				f.ClientID = &client
			}
			if sales != 0 {
				f.SalesContactID = &sales
			}
			list, err := a.svc.Contracts.List(ctx, f)
			if err != nil {
				return err
			}
			a.printContracts(list)
			return nil
		},
	}
}

func (a *App) contractGetCmd() *Command {
	return &Command{
		Name:    "get",
		Summary: "Show one contract",
		Usage:   "crm contract get <id>",
		Run: func(ctx context.Context, args []string) error {
			id, err := a.idArg(args, "contract")
			if err != nil {
				return err
			}
			c, err := a.svc.Contracts.Get(ctx, id)
			if err != nil {
				return err
			}
			a.printContract(c)
			return nil
		},
	}
}

func (a *App) contractUpdateCmd() *Command {
	var fs *pflag.FlagSet
	var total, remaining float64
	var status string
	var sales int64
	return &Command{
		Name:    "update",
		Summary: "Change a contract (assigned sales contacts may edit their own)",
		Usage:   "crm contract update <id> [flags]",
		Flags: func() *pflag.FlagSet {
			fs = newFlagSet("update")
			fs.Float64Var(&total, "total", 0, "new total amount; the amount already paid is kept")
			fs.Float64Var(&remaining, "remaining", 0, "new remaining amount")
			fs.StringVar(&status, "status", "", "signed or unsigned")
			fs.Int64Var(&sales, "sales-contact", 0, "re-assign to this sales contact id")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := a.idArg(args, "contract")
			if err != nil {
				return err
			}
			var upd services.ContractUpdate
			if fs.Changed("total") {
				upd.TotalAmount = &total
			}
			if fs.Changed("remaining") {
				upd.RemainingAmount = &remaining
			}
			if fs.Changed("status") {
				upd.Status = &status
			}
			if fs.Changed("sales-contact") {
				upd.SalesContactID = &sales
			}
			if upd == (services.ContractUpdate{}) {
				return usageErrorf("nothing to update, pass at least one of --total, --remaining, --status, --sales-contact")
			}
			c, err := a.svc.Contracts.Update(ctx, id, upd)
			if err != nil {
				return err
			}
			a.printContract(c)
			return nil
		},
	}
}

func (a *App) contractPayCmd() *Command {
	var amount string
	return &Command{
		Name:    "pay",
		Summary: "Record a payment against a contract",
		Usage:   "crm contract pay <id> --amount <amount>",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("pay")
			fs.StringVar(&amount, "amount", "", "amount paid")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := a.idArg(args, "contract")
			if err != nil {
				return err
			}
			if err := a.required(&amount, "Amount"); err != nil {
				return err
			}
			v, err := parseAmount(amount, "amount")
			if err != nil {
				return err
			}
			c, err := a.svc.Contracts.RecordPayment(ctx, id, v)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Payment of %s recorded, %s left to pay.\n", a.amount(v), a.amount(c.RemainingAmount))
			return nil
		},
	}
}

func (a *App) contractDeleteCmd() *Command {
	var yes bool
	return &Command{
		Name:    "delete",
		Summary: "Delete a contract with its events",
		Usage:   "crm contract delete <id> [--yes]",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("delete")
			fs.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := a.idArg(args, "contract")
			if err != nil {
				return err
			}
			if ok, err := a.confirm(yes, fmt.Sprintf("Delete contract %s and its events?", id)); err != nil || !ok {
				return err
			}
			if err := a.svc.Contracts.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Contract %s deleted.\n", id)
			return nil
		},
	}
}
