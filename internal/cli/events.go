package cli

import (
	"context"
	"fmt"

	"github.com/epicevents/crm/internal/services"
	"github.com/spf13/pflag"
)

func (a *App) eventCmd() *Command {
	return &Command{
		Name:    "event",
		Summary: "Manage events",
		Subcommands: []*Command{
			a.eventCreateCmd(),
			a.eventListCmd(),
			a.eventGetCmd(),
			a.eventUpdateCmd(),
			a.eventDeleteCmd(),
		},
	}
}

func (a *App) eventCreateCmd() *Command {
	var contract, name, start, end string
	var in services.EventInput
	var support int64
	return &Command{
		Name:    "create",
		Summary: "Plan an event for a signed contract",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("create")
			fs.StringVar(&contract, "contract", "", "contract id")
			fs.StringVar(&name, "name", "", "event name")
			fs.StringVar(&start, "start", "", "start, YYYY-MM-DD HH:MM")
			fs.StringVar(&end, "end", "", "end, YYYY-MM-DD HH:MM")
			fs.StringVar(&in.Location, "location", "", "venue address")
			fs.IntVar(&in.Attendees, "attendees", 0, "expected number of attendees")
			fs.StringVar(&in.Notes, "notes", "", "free-form notes")
			fs.Int64Var(&support, "support", 0, "support contact id")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			for _, p := range []struct {
				v      *string
				prompt string
			}{
				{&contract, "Contract id"},
				{&name, "Event name"},
				{&start, "Start (YYYY-MM-DD HH:MM)"},
				{&end, "End (YYYY-MM-DD HH:MM)"},
			} {
				if err := a.required(p.v, p.prompt); err != nil {
					return err
				}
			}
			var err error
			if in.StartDate, err = parseDate(start, "start date"); err != nil {
				return err
			}
			if in.EndDate, err = parseDate(end, "end date"); err != nil {
				return err
			}
			in.Name = name
			if support != 0 {
				in.SupportContactID = &support
			}
			e, err := a.svc.Events.Create(ctx, contract, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Event %d created.\n", e.ID)
			return nil
		},
	}
}

func (a *App) eventListCmd() *Command {
	var (
		f               services.EventFilter
		client, support int64
	)
	return &Command{
		Name:    "list",
		Summary: "List events",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("list")
			fs.BoolVar(&f.Mine, "mine", false, "only events you support")
			fs.BoolVar(&f.Unassigned, "unassigned", false, "only events without a support contact")
			fs.StringVar(&f.ContractID, "contract", "", "only events of this contract id")
			fs.Int64Var(&client, "client", 0, "only events of this client id")
			fs.Int64Var(&support, "support", 0, "only events of this support contact id")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if client != 0 {
				f.ClientID = &client
			}
			if support != 0 {
				f.SupportContactID = &support
			}
			list, err := a.svc.Events.List(ctx, f)
			if err != nil {
				return err
			}
			a.printEvents(list)
			return nil
		},
	}
}

func (a *App) eventGetCmd() *Command {
	return &Command{
		Name:    "get",
		Summary: "Show one event",
		Usage:   "crm event get <id>",
		Run: func(ctx context.Context, args []string) error {
			id, err := a.intIDArg(args, "event")
			if err != nil {
				return err
			}
			e, err := a.svc.Events.Get(ctx, id)
			if err != nil {
				return err
			}
			a.printEvent(e)
			return nil
		},
	}
}

func (a *App) eventUpdateCmd() *Command {
	var fs *pflag.FlagSet
	var name, start, end, location, notes string
	var attendees int
	var support int64
	return &Command{
		Name:    "update",
		Summary: "Change an event (its support contact may edit it)",
		Usage:   "crm event update <id> [flags]",
		Flags: func() *pflag.FlagSet {
			fs = newFlagSet("update")
			fs.StringVar(&name, "name", "", "new name")
			fs.StringVar(&start, "start", "", "new start, YYYY-MM-DD HH:MM")
			fs.StringVar(&end, "end", "", "new end, YYYY-MM-DD HH:MM")
			fs.StringVar(&location, "location", "", "new venue")
			fs.IntVar(&attendees, "attendees", 0, "new number of attendees")
			fs.StringVar(&notes, "notes", "", "new notes")
			fs.Int64Var(&support, "support", 0, "assign this support contact id")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := a.intIDArg(args, "event")
			if err != nil {
				return err
			}
			var upd services.EventUpdate
			if fs.Changed("name") {
				upd.Name = &name
			}
			if fs.Changed("start") {
				t, err := parseDate(start, "start date")
				if err != nil {
					return err
				}
				upd.StartDate = &t
			}
			if fs.Changed("end") {
				t, err := parseDate(end, "end date")
				if err != nil {
					return err
				}
				upd.EndDate = &t
			}
			if fs.Changed("location") {
				upd.Location = &location
			}
			if fs.Changed("attendees") {
				upd.Attendees = &attendees
			}
			if fs.Changed("notes") {
				upd.Notes = &notes
			}
			if fs.Changed("support") {
				upd.SupportContactID = &support
			}
			if upd == (services.EventUpdate{}) {
				return usageErrorf("nothing to update, see 'crm event update --help'")
			}
			e, err := a.svc.Events.Update(ctx, id, upd)
			if err != nil {
				return err
			}
			a.printEvent(e)
			return nil
		},
	}
}

func (a *App) eventDeleteCmd() *Command {
	var yes bool
	return &Command{
		Name:    "delete",
		Summary: "Delete an event",
		Usage:   "crm event delete <id> [--yes]",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("delete")
			fs.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := a.intIDArg(args, "event")
			if err != nil {
				return err
			}
			if ok, err := a.confirm(yes, fmt.Sprintf("Delete event %d?", id)); err != nil || !ok {
				return err
			}
			if err := a.svc.Events.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Event %d deleted.\n", id)
			return nil
		},
	}
}
