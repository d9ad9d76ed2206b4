package server

import (
	"bufio"
	"context"
	cerrors "cow-chat/errors"
	"cow-chat/protocol"
	"cow-chat/runtime"
	"cow-chat/services"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
)

const maxLineLength = 64 * 1024

var errLineTooLong = errors.New("line too long")

// ChatServer accepts TCP connections and runs one handler goroutine per
// connection. A handler processes its commands strictly one after another.
type ChatServer struct {
	log          *slog.Logger
	orchestrator *runtime.Orchestrator
	chatService  services.IChatService
	handlers     sync.WaitGroup
}

func NewChatServer(log *slog.Logger, orchestrator *runtime.Orchestrator, chatService services.IChatService) *ChatServer {
	return &ChatServer{log: log, orchestrator: orchestrator, chatService: chatService}
}

// Serve accepts connections until ctx is cancelled or the listener fails.
// It does not wait for live connections; see Wait.
func (s *ChatServer) Serve(ctx context.Context, listener net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.log.Warn("Temporary accept failure", "error", err)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.handlers.Add(1)
		go s.handle(conn)
	}
}

// Wait blocks until every connection handler returned.
func (s *ChatServer) Wait() {
	s.handlers.Wait()
}

// handle owns one connection for its whole life. Whatever happens here
// (EOF, reset, malformed input, even a panic) only ever closes this session.
func (s *ChatServer) handle(conn net.Conn) {
	defer s.handlers.Done()

	session := s.orchestrator.Open(conn)
	defer session.Close()
	defer func() {
		if r := recover(); r != nil {
			session.Logger().Error("Connection handler panicked", "panic", r)
		}
	}()

	if err := session.Send(s.chatService.Welcome()); err != nil {
		session.Logger().Warn("Failed to send welcome", "error", err)
		return
	}

	reader := bufio.NewReaderSize(conn, maxLineLength)
	for {
		line, err := readLine(reader)
		if errors.Is(err, errLineTooLong) {
			tooLong := fmt.Errorf("%w: line longer than %d bytes", cerrors.ErrMalformedCommand, maxLineLength)
			session.Logger().Debug("Command rejected", "error", tooLong)
			if err := session.Send(protocol.Failure("", tooLong)); err != nil {
				session.Logger().Warn("Failed to send reply", "error", err)
				return
			}
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				session.Logger().Info("Client disconnected")
			} else if !errors.Is(err, net.ErrClosed) {
				session.Logger().Info("Connection read failed", "error", err)
			}
			return
		}

		result := s.chatService.Handle(session, line)
		if !result.Silent {
			if err := session.Send(result.Reply); err != nil {
				session.Logger().Warn("Failed to send reply", "error", err)
				return
			}
		}
		if result.Close {
			return
		}
	}
}

// readLine returns the next line without its terminator. A line that does
// not fit the reader's buffer is skipped up to its end and reported as
// errLineTooLong, leaving the reader at the start of the following line.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadSlice('\n')
	switch {
	case err == nil:
		return strings.TrimRight(string(line), "\r\n"), nil
	case errors.Is(err, bufio.ErrBufferFull):
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = reader.ReadSlice('\n')
		}
		if err != nil {
			return "", err
		}
		return "", errLineTooLong
	case errors.Is(err, io.EOF) && len(line) > 0:
		return strings.TrimRight(string(line), "\r\n"), nil
	default:
		return "", err
	}
}
