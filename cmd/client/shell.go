package main

import (
	"context"
	"cow-chat/domain/chat"
	"cow-chat/errors"
	"cow-chat/infrastructure/tcp/client"
	"cow-chat/internal"
	"cow-chat/services"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/samber/lo"
)

const prompt = "> "

var aliases = map[string]string{
	"exit": chat.NameQuit,
	"bye":  chat.NameQuit,
}

// shell is the synchronous side of the client: it reads one line, runs it as
// a command and prints the reply while a second goroutine prints pushes.
type shell struct {
	log     *slog.Logger
	client  *client.ChatClient
	rl      *readline.Instance
	printer *printer
	pushes  sync.WaitGroup
}

func newShell(log *slog.Logger, chatClient *client.ChatClient, config internal.ClientConfig) (*shell, error) {
	completer := services.NewCompleter(log, chatClient, config.CompletionTimeout)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     config.HistoryFile,
		AutoComplete:    newAutoCompleter(completer),
		InterruptPrompt: "^C",
		EOFPrompt:       chat.NameQuit,
	})
	if err != nil {
		return nil, fmt.Errorf("could not start line editor: %w", err)
	}
	return &shell{
		log:     log,
		client:  chatClient,
		rl:      rl,
		printer: newPrinter(rl.Stdout()),
	}, nil
}

func newAutoCompleter(completer *services.Completer) *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(chat.NameLogin, readline.PcItemDynamic(completer.FreeCows)),
		readline.PcItem(chat.NameSay, readline.PcItemDynamic(completer.Users)),
		readline.PcItem(chat.NameYield),
		readline.PcItem(chat.NameWho),
		readline.PcItem(chat.NameCows),
		readline.PcItem(chat.NameQuit),
		readline.PcItem(chat.NameHelp, lo.Map(chat.Usage, func(u chat.UsageLine, _ int) readline.PrefixCompleterInterface {
			return readline.PcItem(commandName(u.Command))
		})...),
	)
}

// Run prints pushes in the background and executes commands until quit,
// end of input or loss of the connection.
func (s *shell) Run() error {
	s.pushes.Add(1)
	go s.printPushes()

	for {
		line, err := s.rl.Readline()
		if stderrors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if stderrors.Is(err, io.EOF) {
			line = chat.NameQuit
		} else if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if done := s.execute(line); done {
			return nil
		}
	}
}

// Close drops the connection first so that the push printer can drain.
func (s *shell) Close() {
	_ = s.client.Close()
	s.pushes.Wait()
	_ = s.rl.Close()
}

// execute runs one line and reports whether the shell must stop.
func (s *shell) execute(line string) bool {
	name, rest, _ := strings.Cut(line, " ")
	if alias, ok := aliases[name]; ok {
		name = alias
		line = strings.TrimSpace(alias + " " + rest)
	}
	if name == chat.NameHelp && strings.TrimSpace(rest) != "" {
		s.printer.Help(strings.TrimSpace(rest))
		return false
	}

	frame, err := s.client.Do(context.Background(), line)
	switch {
	case stderrors.Is(err, errors.ErrBridgeTimeout):
		s.printer.Error("No response from server, try again")
		return false
	case err != nil:
		s.printer.Error("Connection to server lost")
		return true
	}

	s.printer.Reply(frame)
	return name == chat.NameQuit && frame.OK
}

func (s *shell) printPushes() {
	defer s.pushes.Done()
	for frame := range s.client.Pushes() {
		s.printer.Push(frame)
	}
}

// commandName keeps the verb of a usage line such as "say <cow> <text>".
func commandName(usage string) string {
	name, _, _ := strings.Cut(usage, " ")
	return name
}
