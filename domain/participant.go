// Package domain contains core concepts of the chat system.
// This file defines Participant identities and session states.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is the display name a session binds to after login.
// It is drawn from the art catalog and is unique among live sessions.
type Identity string

func (i Identity) String() string { return string(i) }

type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticated
	Terminated
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
