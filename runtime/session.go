package runtime

import (
	"cow-chat/domain"
	"cow-chat/errors"
	"cow-chat/protocol"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side state of one live connection.
// It is created Unauthenticated by Registry.Open and bound to an identity
// at most once, by a successful login.
type Session struct {
	ID           uuid.UUID
	conn         net.Conn
	log          *slog.Logger
	writeTimeout time.Duration

	mu       sync.Mutex
	identity domain.Identity
	state    domain.SessionState

	// writeMu keeps replies and pushed messages from interleaving on the wire.
	writeMu sync.Mutex

	// queue is guarded by the owning Registry's lock.
	queue deliveryQueue

	closeOnce sync.Once
	onClose   func(*Session)
	done      chan struct{}
}

func newSession(conn net.Conn, log *slog.Logger, writeTimeout time.Duration, queueSize int, onClose func(*Session)) *Session {
	id := uuid.New()
	return &Session{
		ID:           id,
		conn:         conn,
		log:          log.With("session_id", id.String(), "remote", remoteAddr(conn)),
		writeTimeout: writeTimeout,
		state:        domain.Unauthenticated,
		queue:        newDeliveryQueue(queueSize),
		onClose:      onClose,
		done:         make(chan struct{}),
	}
}

// Identity returns the bound identity, if any. It survives Close so that
// teardown can still find the binding to remove.
func (s *Session) Identity() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.identity != ""
}

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Logger() *slog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log
}

// bind attaches the identity. The caller holds the Registry lock.
func (s *Session) bind(identity domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.Authenticated:
		return errors.ErrAlreadyAuthenticated
	case domain.Terminated:
		return errors.ErrSessionClosed
	}
	s.identity = identity
	s.state = domain.Authenticated
	s.log = s.log.With("identity", string(identity))
	return nil
}

// Send writes one frame, waiting at most writeTimeout for the peer to accept it.
func (s *Session) Send(frame protocol.Frame) error {
	b, err := protocol.Encode(frame)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrSessionClosed, err)
		}
	}
	if _, err := s.conn.Write(b); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrSessionClosed, err)
	}
	return nil
}

// Close tears the session down exactly once, whoever calls it first:
// the connection handler on quit or EOF, or the delivery loop on a failed write.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = domain.Terminated
		s.mu.Unlock()

		if s.onClose != nil {
			s.onClose(s)
		}
		_ = s.conn.Close()
		close(s.done)
		s.Logger().Info("Session closed")
	})
}

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

func remoteAddr(conn net.Conn) string {
	if conn == nil || conn.RemoteAddr() == nil {
		return "unknown"
	}
	return conn.RemoteAddr().String()
}
