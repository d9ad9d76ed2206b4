package services

import (
	"context"
	"cow-chat/contract"
	"cow-chat/domain/chat"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Completer answers tab-completion queries for cow names by asking the server.
// Each query is one bounded round trip; on timeout or refusal it offers
// nothing rather than stalling the line editor.
type Completer struct {
	log       *slog.Logger
	requester contract.Requester
	timeout   time.Duration
}

func NewCompleter(log *slog.Logger, requester contract.Requester, timeout time.Duration) *Completer {
	return &Completer{log: log, requester: requester, timeout: timeout}
}

// FreeCows lists cows nobody is logged in as, for "login <TAB>".
func (c *Completer) FreeCows(string) []string {
	return c.query(chat.NameCows)
}

// Users lists logged in cows, for "say <TAB>".
func (c *Completer) Users(string) []string {
	return c.query(chat.NameWho)
}

func (c *Completer) query(command string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	frame, err := c.requester.Do(ctx, command)
	if err != nil {
		c.log.Debug("Completion query failed", "command", command, "error", err)
		return nil
	}
	if !frame.OK {
		return nil
	}
	return lo.Filter(frame.Items, func(item string, _ int) bool {
		return strings.TrimSpace(item) != ""
	})
}
