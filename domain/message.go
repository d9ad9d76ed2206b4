// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once rendered.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	Direct    MessageKind = "direct"
	Broadcast MessageKind = "broadcast"
)

// Message represents an immutable rendered chat event waiting for delivery.
type Message struct {
	ID        uuid.UUID // unique identifier
	Kind      MessageKind
	Sender    Identity
	Text      string // multi-line art produced by the renderer
	CreatedAt time.Time
}

func NewMessage(kind MessageKind, sender Identity, text string) Message {
	return Message{
		ID:        uuid.New(),
		Kind:      kind,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// Caption is the sentence handed to the renderer before it becomes art.
func Caption(kind MessageKind, sender Identity, content string) string {
	if kind == Broadcast {
		return fmt.Sprintf("From %s to all: %s", sender, content)
	}
	return fmt.Sprintf("From %s: %s", sender, content)
}
