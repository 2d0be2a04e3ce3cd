package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/epicevents/crm/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal reports whether stdin is a terminal; password prompts fall
// back to a plain line read when it is not.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// dateLayout is the format accepted for event dates.
const dateLayout = "2006-01-02 15:04"

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints a prompt to w and reads a password without echo. When
// stdin is not a terminal the password is read as a plain line from reader.
func GetPassword(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if !isTerminal() {
		return GetSimpleText(reader, prompt, w)
	}
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func Confirm(reader *bufio.Reader, prompt string, w io.Writer) (bool, error) {
	answer, err := GetSimpleText(reader, prompt+" [y/N]", w)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// required returns value, prompting for it when empty.
func (a *App) required(value *string, prompt string) error {
	if strings.TrimSpace(*value) != "" {
		return nil
	}
	v, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return inputError(prompt, err)
	}
	*value = v
	return nil
}

// inputError turns a failed prompt into a usage error: with stdin
// exhausted the value was simply not supplied.
func inputError(prompt string, err error) error {
	if errors.Is(err, io.EOF) {
		return usageErrorf("%s is required", strings.ToLower(prompt))
	}
	return usageErrorf("read %s: %v", strings.ToLower(prompt), err)
}

func (a *App) requiredPassword(value *string, prompt string) error {
	if *value != "" {
		return nil
	}
	v, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return inputError(prompt, err)
	}
	*value = v
	return nil
}

// confirm asks before a destructive action unless yes is set.
func (a *App) confirm(yes bool, prompt string) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := Confirm(a.reader, prompt, a.out)
	if err != nil {
		return false, inputError("confirmation", err)
	}
	if !ok {
		fmt.Fprintln(a.out, "Aborted.")
	}
	return ok, nil
}

// idArg takes the record id from args or prompts for it.
func (a *App) idArg(args []string, what string) (string, error) {
	switch len(args) {
	case 0:
		var id string
		if err := a.required(&id, strings.ToUpper(what[:1])+what[1:]+" id"); err != nil {
			return "", err
		}
		if id == "" {
			return "", usageErrorf("%s id is required", what)
		}
		return id, nil
	case 1:
		return args[0], nil
	}
	return "", usageErrorf("expected a single %s id, got %d arguments", what, len(args))
}

func (a *App) intIDArg(args []string, what string) (int64, error) {
	raw, err := a.idArg(args, what)
	if err != nil {
		return 0, err
	}
	return parseID(raw, what)
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErrorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func parseAmount(raw, what string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, usageErrorf("invalid %s %q", what, raw)
	}
	return v, nil
}

func parseDate(raw, what string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, usageErrorf("invalid %s %q (want YYYY-MM-DD HH:MM)", what, raw)
	}
	return t, nil
}
