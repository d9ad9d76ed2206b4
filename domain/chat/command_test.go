package chat

import (
	"cow-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{"login", "login sheep", LoginCommand{Identity: "sheep"}},
		{"login with padding", "  login   sheep  ", LoginCommand{Identity: "sheep"}},
		{"help", "help", HelpCommand{}},
		{"who", "who", WhoCommand{}},
		{"cows", "cows", CowsCommand{}},
		{"quit", "quit", QuitCommand{}},
		{"say keeps inner spacing", "say moose hello   there", SayCommand{Target: "moose", Text: "hello   there"}},
		{"yield keeps every word", "yield good  morning all", YieldCommand{Text: "good  morning all"}},
		{"unknown", "dance", UnknownCommand{Raw: "dance"}},
		{"empty", "", UnknownCommand{Raw: ""}},
		{"case sensitive", "LOGIN sheep", UnknownCommand{Raw: "LOGIN sheep"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cmd, err := Parse(tt.line)
			req.NoError(err)
			req.Equal(tt.want, cmd)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
	}{
		{"login without name", "login", NameLogin},
		{"login with two names", "login sheep moose", NameLogin},
		{"say without text", "say moose", NameSay},
		{"say alone", "say", NameSay},
		{"yield without text", "yield", NameYield},
		{"yield with blanks", "yield    ", NameYield},
		{"who with argument", "who all", NameWho},
		{"quit with argument", "quit now", NameQuit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cmd, err := Parse(tt.line)
			// Then the intended command is still recognised
			req.ErrorIs(err, errors.ErrMalformedCommand)
			req.Equal(tt.wantName, cmd.Name())
		})
	}
}

func TestCommand_RequiresLogin(t *testing.T) {
	req := require.New(t)

	req.True(SayCommand{}.RequiresLogin())
	req.True(YieldCommand{}.RequiresLogin())
	req.False(LoginCommand{}.RequiresLogin())
	req.False(WhoCommand{}.RequiresLogin())
	req.False(CowsCommand{}.RequiresLogin())
	req.False(HelpCommand{}.RequiresLogin())
	req.False(QuitCommand{}.RequiresLogin())
}

func TestSplitFields(t *testing.T) {
	req := require.New(t)

	req.Equal([]string{"say", "cow", "a  b"}, splitFields("say cow a  b", 3))
	req.Equal([]string{"a"}, splitFields("  a  ", 3))
	req.Empty(splitFields("   ", 3))
	req.Equal([]string{"yield", "x y"}, splitFields("yield x y", 2))
}
