package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the crm command tree.
type Command struct {
	// Name is the word typed by the operator ("client", "create").
	Name string

	// Summary is shown in the parent's help listing.
	Summary string

	// Usage overrides the synthesized usage line.
	Usage string

	// Flags returns the command's flag set. It is called once per
	// execution, so closures may bind flag values to local variables.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run executes the command with the positional arguments left after
	// flag parsing.
	Run func(ctx context.Context, args []string) error

	parent *Command
}

// UsageError reports a malformed command line. It maps to exit code 2.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// IsUsageError reports whether err came from parsing the command line.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// errHelpShown is returned after help was printed on request.
var errHelpShown = errors.New("help shown")

// Execute dispatches args down the tree and runs the matching command.
func (c *Command) Execute(ctx context.Context, args []string, help io.Writer) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(help)
		return errHelpShown
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				return sub.Execute(ctx, args[1:], help)
			}
		}
		return usageErrorf("unknown command %q, run '%s --help' for usage", args[0], c.fullName())
	}

	if len(c.Subcommands) > 0 && c.Run == nil {
		c.PrintHelp(help)
		return usageErrorf("%s: subcommand required", c.fullName())
	}

	if c.Flags != nil {
		fs := c.Flags()
		fs.SetOutput(io.Discard)
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				c.PrintHelp(help)
				return errHelpShown
			}
			return usageErrorf("%s: %v, run '%s --help' for usage", c.fullName(), err, c.fullName())
		}
		args = fs.Args()
	}

	if c.Run == nil {
		c.PrintHelp(help)
		return usageErrorf("no action defined for %q", c.fullName())
	}
	return c.Run(ctx, args)
}

// PrintHelp writes the command's usage, subcommands and flags to w.
func (c *Command) PrintHelp(w io.Writer) {
	if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", c.fullName())
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", c.fullName())
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		var b strings.Builder
		fs := c.Flags()
		fs.SetOutput(&b)
		fs.PrintDefaults()
		if b.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", b.String())
		}
	}
}

func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}
