package runtime

import (
	"cow-chat/contract"
	"cow-chat/domain"
	"cow-chat/errors"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Outgoing is the head of one recipient's queue, taken out for delivery.
type Outgoing struct {
	Session *Session
	Message domain.Message
}

// Registry is the single owner of live sessions, identity bindings and
// delivery queues. Every mutation goes through its lock.
type Registry struct {
	mu         sync.Mutex
	log        *slog.Logger
	catalog    contract.Catalog
	queueSize  int
	sessions   map[uuid.UUID]*Session       // every open connection
	identities map[domain.Identity]*Session // authenticated sessions only
	wake       chan struct{}
	closed     bool
}

func NewRegistry(log *slog.Logger, catalog contract.Catalog, queueSize int) *Registry {
	return &Registry{
		log:        log,
		catalog:    catalog,
		queueSize:  queueSize,
		sessions:   make(map[uuid.UUID]*Session),
		identities: make(map[domain.Identity]*Session),
		wake:       make(chan struct{}, 1),
	}
}

// Open creates an Unauthenticated session for a freshly accepted connection.
// Closing the session releases it from the registry.
// Once Shutdown has been called, the returned session is already closed.
func (r *Registry) Open(conn net.Conn, writeTimeout time.Duration) *Session {
	s := newSession(conn, r.log, writeTimeout, r.queueSize, r.Release)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.Close()
		return s
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Shutdown refuses every later Open and returns the sessions still open.
func (r *Registry) Shutdown() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return lo.Values(r.sessions)
}

// Register binds identity to the session.
// Two concurrent registrations of the same identity never both succeed.
func (r *Registry) Register(identity domain.Identity, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; !ok {
		return errors.ErrSessionClosed
	}
	if _, bound := s.Identity(); bound {
		return errors.ErrAlreadyAuthenticated
	}
	if !r.catalog.Contains(identity) {
		return errors.ErrUnknownIdentity
	}
	if _, taken := r.identities[identity]; taken {
		return errors.ErrDuplicateIdentity
	}
	if err := s.bind(identity); err != nil {
		return err
	}
	r.identities[identity] = s
	return nil
}

// Release removes the session and its queue. It only unbinds the identity if
// it still points at this very session, so a stale teardown can never evict
// a newer owner of the same name. Calling it twice is harmless.
func (r *Registry) Release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, s.ID)
	s.queue.reset()
	if identity, ok := s.Identity(); ok {
		if owner, exists := r.identities[identity]; exists && owner == s {
			delete(r.identities, identity)
		}
	}
}

func (r *Registry) Lookup(identity domain.Identity) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.identities[identity]
	return s, ok
}

// ListIdentities returns registered identities, sorted.
func (r *Registry) ListIdentities() []domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sorted(lo.Keys(r.identities))
}

// FreeIdentities returns catalog identities nobody is bound to, sorted.
func (r *Registry) FreeIdentities() []domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	free := lo.Filter(r.catalog.Identities(), func(id domain.Identity, _ int) bool {
		_, taken := r.identities[id]
		return !taken
	})
	return sorted(free)
}

// Deliver enqueues msg for target and wakes the delivery loop.
func (r *Registry) Deliver(target domain.Identity, msg domain.Message) error {
	r.mu.Lock()
	s, ok := r.identities[target]
	if !ok {
		r.mu.Unlock()
		return errors.ErrUnknownTarget
	}
	r.enqueue(s, msg)
	r.mu.Unlock()

	r.notify()
	return nil
}

// Broadcast enqueues msg for every authenticated session except its sender.
// It returns the number of recipients.
func (r *Registry) Broadcast(msg domain.Message) int {
	r.mu.Lock()
	recipients := lo.OmitByKeys(r.identities, []domain.Identity{msg.Sender})
	for _, s := range recipients {
		r.enqueue(s, msg)
	}
	r.mu.Unlock()

	if len(recipients) > 0 {
		r.notify()
	}
	return len(recipients)
}

// Next pops the head message of every non-empty queue.
// Popping one message per recipient per call keeps delivery fair while the
// order within each recipient's queue is preserved.
func (r *Registry) Next() []Outgoing {
	r.mu.Lock()
	defer r.mu.Unlock()

	var batch []Outgoing
	for _, s := range r.identities {
		if msg, ok := s.queue.pop(); ok {
			batch = append(batch, Outgoing{Session: s, Message: msg})
		}
	}
	return batch
}

// Wake fires after messages were enqueued.
func (r *Registry) Wake() <-chan struct{} { return r.wake }

// Sessions returns a snapshot of every open session.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Values(r.sessions)
}

type Stats struct {
	Sessions      int
	Authenticated int
	Pending       int
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Sessions:      len(r.sessions),
		Authenticated: len(r.identities),
		Pending: lo.SumBy(lo.Values(r.identities), func(s *Session) int {
			return s.queue.len()
		}),
	}
}

// enqueue expects r.mu to be held.
func (r *Registry) enqueue(s *Session, msg domain.Message) {
	if dropped := s.queue.push(msg); dropped {
		s.Logger().Warn("Delivery queue full, oldest message dropped", "queue_size", r.queueSize)
	}
}

func (r *Registry) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func sorted(ids []domain.Identity) []domain.Identity {
	slices.Sort(ids)
	return ids
}
