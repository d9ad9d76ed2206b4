//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"cow-chat/domain"
	"cow-chat/protocol"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Renderer draws a caption as multi-line art spoken by the given identity.
type Renderer interface {
	Render(caption string, identity domain.Identity) (string, error)
}

// Catalog is the fixed set of identities a session may log in with.
type Catalog interface {
	Contains(identity domain.Identity) bool
	Identities() []domain.Identity
}

// Censor masks forbidden words and reports which ones were found.
type Censor interface {
	Censor(text string) (string, []string)
}

// Requester performs one bounded command round trip with the chat server.
type Requester interface {
	Do(ctx context.Context, command string) (protocol.Frame, error)
}
