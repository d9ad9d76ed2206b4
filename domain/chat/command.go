package chat

import (
	"cow-chat/domain"
	"cow-chat/errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	NameLogin = "login"
	NameHelp  = "help"
	NameWho   = "who"
	NameCows  = "cows"
	NameSay   = "say"
	NameYield = "yield"
	NameQuit  = "quit"
)

// Command is one parsed line of client input.
type Command interface {
	Name() string
	// RequiresLogin reports whether the command is only valid once an identity is bound.
	RequiresLogin() bool
}

type LoginCommand struct {
	Identity domain.Identity
}

type HelpCommand struct{}

type WhoCommand struct{}

type CowsCommand struct{}

type SayCommand struct {
	Target domain.Identity
	Text   string
}

type YieldCommand struct {
	Text string
}

type QuitCommand struct{}

type UnknownCommand struct {
	Raw string
}

func (LoginCommand) Name() string { return NameLogin }
func (HelpCommand) Name() string { return NameHelp }
func (WhoCommand) Name() string { return NameWho }
func (CowsCommand) Name() string { return NameCows }
func (SayCommand) Name() string { return NameSay }
func (YieldCommand) Name() string { return NameYield }
func (QuitCommand) Name() string { return NameQuit }
func (UnknownCommand) Name() string { return "" }

func (LoginCommand) RequiresLogin() bool { return false }
func (HelpCommand) RequiresLogin() bool { return false }
func (WhoCommand) RequiresLogin() bool { return false }
func (CowsCommand) RequiresLogin() bool { return false }
func (SayCommand) RequiresLogin() bool { return true }
func (YieldCommand) RequiresLogin() bool { return true }
func (QuitCommand) RequiresLogin() bool { return false }
func (UnknownCommand) RequiresLogin() bool { return false }

type UsageLine struct {
	Command     string
	Description string
}

// Usage lists every command with its arguments, in the order shown by help.
var Usage = []UsageLine{
	{"who", "list registered users"},
	{"cows", "list free cow names"},
	{"login <cow>", "register under a cow name"},
	{"say <cow> <text>", "send a message to one user"},
	{"yield <text>", "send a message to every other user"},
	{"quit", "disconnect"},
	{"help", "show this message"},
}

// Parse turns a trimmed input line into a Command.
// A malformed line still yields the command it was meant to be, alongside an
// error wrapping ErrMalformedCommand, so that callers can check login state first.
func Parse(line string) (Command, error) {
	fields := splitFields(strings.TrimSpace(line), 3)
	if len(fields) == 0 {
		return UnknownCommand{Raw: line}, nil
	}

	switch fields[0] {
	case NameLogin:
		if len(fields) != 2 {
			return LoginCommand{}, malformed("login <cow>")
		}
		return LoginCommand{Identity: domain.Identity(fields[1])}, nil
	case NameSay:
		if len(fields) != 3 {
			return SayCommand{}, malformed("say <cow> <text>")
		}
		return SayCommand{Target: domain.Identity(fields[1]), Text: fields[2]}, nil
	case NameYield:
		rest := splitFields(strings.TrimSpace(line), 2)
		if len(rest) != 2 {
			return YieldCommand{}, malformed("yield <text>")
		}
		return YieldCommand{Text: rest[1]}, nil
	case NameHelp:
		return noArgs(HelpCommand{}, fields)
	case NameWho:
		return noArgs(WhoCommand{}, fields)
	case NameCows:
		return noArgs(CowsCommand{}, fields)
	case NameQuit:
		return noArgs(QuitCommand{}, fields)
	default:
		return UnknownCommand{Raw: line}, nil
	}
}

func noArgs(cmd Command, fields []string) (Command, error) {
	if len(fields) != 1 {
		return cmd, malformed(cmd.Name())
	}
	return cmd, nil
}

func malformed(usage string) error {
	return fmt.Errorf("%w: use '%s'", errors.ErrMalformedCommand, usage)
}

// splitFields splits s on runs of whitespace into at most n fields.
// The last field keeps the remainder of the line, inner spacing included.
func splitFields(s string, n int) []string {
	var fields []string
	for len(s) > 0 && len(fields) < n-1 {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			break
		}
		end := strings.IndexFunc(s, unicode.IsSpace)
		if end < 0 {
			fields = append(fields, s)
			return fields
		}
		fields = append(fields, s[:end])
		s = s[end:]
	}
	if s = strings.TrimSpace(s); s != "" {
		fields = append(fields, s)
	}
	return fields
}
