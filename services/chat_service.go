package services

import (
	"cow-chat/contract"
	"cow-chat/domain"
	"cow-chat/domain/chat"
	"cow-chat/errors"
	"cow-chat/protocol"
	"cow-chat/runtime"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"
)

const welcomeText = "Welcome to the cow chat!\n" +
	"To register, type: login <cow name>\n" +
	"To list commands, type: help"

// Result is what the connection handler must do after one command.
type Result struct {
	Reply protocol.Frame
	// Silent means nothing is sent back (blank input line).
	Silent bool
	// Close means the reply is a farewell and the session ends after it.
	Close bool
}

type IChatService interface {
	Welcome() protocol.Frame
	Handle(session *runtime.Session, line string) Result
}

// ChatService is the command dispatcher: it validates one input line against
// the session state and mutates the registry or the delivery queues.
type ChatService struct {
	log      *slog.Logger
	registry *runtime.Registry
	renderer contract.Renderer
	censor   contract.Censor
}

// NewChatService wires the dispatcher. censor may be nil to disable moderation.
func NewChatService(log *slog.Logger, registry *runtime.Registry,
	renderer contract.Renderer, censor contract.Censor) *ChatService {
	return &ChatService{log: log, registry: registry, renderer: renderer, censor: censor}
}

func (s *ChatService) Welcome() protocol.Frame {
	return protocol.Welcome(welcomeText)
}

func (s *ChatService) Handle(session *runtime.Session, line string) Result {
	id, text := protocol.Untag(line)
	if text == "" {
		return Result{Silent: true}
	}

	cmd, parseErr := chat.Parse(text)
	sender, authenticated := session.Identity()

	if !authenticated && (cmd.RequiresLogin() || isUnknown(cmd)) {
		return fail(session, id, fmt.Errorf("%w: use 'login <cow name>'", errors.ErrNotAuthenticated))
	}
	if parseErr != nil {
		return fail(session, id, parseErr)
	}

	switch c := cmd.(type) {
	case chat.LoginCommand:
		return s.login(session, id, c.Identity)
	case chat.HelpCommand:
		return ok(id, helpText())
	case chat.WhoCommand:
		return s.who(id)
	case chat.CowsCommand:
		return s.cows(id)
	case chat.SayCommand:
		return s.say(session, id, sender, c)
	case chat.YieldCommand:
		return s.yield(session, id, sender, c)
	case chat.QuitCommand:
		return Result{Reply: protocol.Reply(id, "Goodbye!"), Close: true}
	default:
		return fail(session, id, fmt.Errorf("%w: type 'help' for the list of commands", errors.ErrUnknownCommand))
	}
}

func (s *ChatService) login(session *runtime.Session, id string, identity domain.Identity) Result {
	if err := s.registry.Register(identity, session); err != nil {
		return fail(session, id, fmt.Errorf("%w: '%s'", err, identity))
	}
	session.Logger().Info("Logged in")
	return ok(id, fmt.Sprintf("You are registered as '%s'", identity))
}

func (s *ChatService) who(id string) Result {
	identities := s.registry.ListIdentities()
	if len(identities) == 0 {
		return ok(id, "No registered users")
	}
	return ok(id, "Registered users:", toStrings(identities)...)
}

func (s *ChatService) cows(id string) Result {
	free := s.registry.FreeIdentities()
	if len(free) == 0 {
		return ok(id, "Every cow is taken")
	}
	return ok(id, "Free cows:", toStrings(free)...)
}

func (s *ChatService) say(session *runtime.Session, id string, sender domain.Identity, c chat.SayCommand) Result {
	if _, found := s.registry.Lookup(c.Target); !found {
		return fail(session, id, fmt.Errorf("%w: '%s'", errors.ErrUnknownTarget, c.Target))
	}

	msg, err := s.render(session, domain.Direct, sender, c.Text)
	if err != nil {
		return fail(session, id, err)
	}
	// The target may have left between the lookup and now.
	if err := s.registry.Deliver(c.Target, msg); err != nil {
		return fail(session, id, fmt.Errorf("%w: '%s'", err, c.Target))
	}
	return ok(id, fmt.Sprintf("Message sent to '%s'", c.Target))
}

func (s *ChatService) yield(session *runtime.Session, id string, sender domain.Identity, c chat.YieldCommand) Result {
	msg, err := s.render(session, domain.Broadcast, sender, c.Text)
	if err != nil {
		return fail(session, id, err)
	}
	recipients := s.registry.Broadcast(msg)
	session.Logger().Debug("Broadcast queued", "recipients", recipients)
	return ok(id, "Message sent to all users")
}

// render moderates the text then draws it with the sender's cow.
func (s *ChatService) render(session *runtime.Session, kind domain.MessageKind, sender domain.Identity, content string) (domain.Message, error) {
	if s.censor != nil {
		sanitized, words := s.censor.Censor(content)
		if len(words) > 0 {
			session.Logger().Warn("Message censored",
				"words", len(words),
				"lang", whatlanggo.Detect(content).Lang.Iso6391())
		}
		content = sanitized
	}

	text, err := s.renderer.Render(domain.Caption(kind, sender, content), sender)
	if err != nil {
		session.Logger().Error("Rendering failed", "error", err)
		return domain.Message{}, fmt.Errorf("rendering failed: %w", err)
	}
	return domain.NewMessage(kind, sender, text), nil
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Available commands:")
	for _, u := range chat.Usage {
		fmt.Fprintf(&b, "\n- %s: %s", u.Command, u.Description)
	}
	return b.String()
}

func isUnknown(cmd chat.Command) bool {
	_, unknown := cmd.(chat.UnknownCommand)
	return unknown
}

func ok(id, text string, items ...string) Result {
	return Result{Reply: protocol.Reply(id, text, items...)}
}

func fail(session *runtime.Session, id string, err error) Result {
	session.Logger().Debug("Command rejected", "error", err)
	return Result{Reply: protocol.Failure(id, err)}
}

func toStrings(ids []domain.Identity) []string {
	return lo.Map(ids, func(id domain.Identity, _ int) string { return string(id) })
}
