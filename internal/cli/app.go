// Package cli implements the crm command tree on top of the services
// layer: flag parsing, prompting for missing input, and rendering results.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/logging"
	"github.com/epicevents/crm/internal/services"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Exit codes returned by Run.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Options wire an App to its collaborators.
type Options struct {
	Services *services.Services
	// Setup migrates and seeds the database; used by "init".
	Setup  func(ctx context.Context) error
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Logger logging.Logger
}

// App executes crm commands for one process invocation.
type App struct {
	svc     *services.Services
	setup   func(ctx context.Context) error
	reader  *bufio.Reader
	out     io.Writer
	errOut  io.Writer
	logger  logging.Logger
	printer *message.Printer
}

func NewApp(o Options) *App {
	logger := o.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &App{
		svc:     o.Services,
		setup:   o.Setup,
		reader:  bufio.NewReader(o.In),
		out:     o.Out,
		errOut:  o.Err,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

// Root builds the command tree.
func (a *App) Root() *Command {
	return &Command{
		Name:    "crm",
		Summary: "Epic Events CRM: staff, clients, contracts and events.",
		Subcommands: []*Command{
			a.initCmd(),
			a.loginCmd(),
			a.logoutCmd(),
			a.whoamiCmd(),
			a.userCmd(),
			a.clientCmd(),
			a.contractCmd(),
			a.eventCmd(),
		},
	}
}

// Run executes args (starting with the command name) and returns the
// process exit code. Failures are printed as "Error: <message>".
func (a *App) Run(ctx context.Context, args []string) int {
	err := a.Root().Execute(ctx, args, a.out)
	switch {
	case err == nil, errors.Is(err, errHelpShown):
		return ExitOK
	case IsUsageError(err):
		fmt.Fprintf(a.errOut, "Error: %s\n", err)
		return ExitUsage
	}
	a.logger.Debug(ctx, "command failed", "error", err)
	fmt.Fprintf(a.errOut, "Error: %s\n", common.UserMessage(err))
	return ExitFailure
}
