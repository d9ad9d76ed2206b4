package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
	ErrInvalidPort = fmt.Errorf("invalid port")

	ErrMalformedCommand     = fmt.Errorf("malformed command")
	ErrUnknownCommand       = fmt.Errorf("unknown command")
	ErrNotAuthenticated     = fmt.Errorf("login first")
	ErrAlreadyAuthenticated = fmt.Errorf("already logged in")
	ErrUnknownIdentity      = fmt.Errorf("unknown identity")
	ErrDuplicateIdentity    = fmt.Errorf("identity already taken")
	ErrUnknownTarget        = fmt.Errorf("recipient not found")
	ErrSessionClosed        = fmt.Errorf("session closed")

	ErrBridgeTimeout   = fmt.Errorf("no response from server")
	ErrDisconnected    = fmt.Errorf("disconnected from server")
	ErrUnexpectedFrame = fmt.Errorf("unexpected frame")
)

// Wire codes carried by reply frames.
const (
	CodeOK                   = "ok"
	CodeMalformed            = "malformed"
	CodeUnknownCommand       = "unknown_command"
	CodeNotAuthenticated     = "not_authenticated"
	CodeAlreadyAuthenticated = "already_authenticated"
	CodeUnknownIdentity      = "unknown_identity"
	CodeDuplicateIdentity    = "duplicate_identity"
	CodeUnknownTarget        = "unknown_target"
	CodeInternal             = "internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrMalformedCommand, CodeMalformed},
	{ErrUnknownCommand, CodeUnknownCommand},
	{ErrNotAuthenticated, CodeNotAuthenticated},
	{ErrAlreadyAuthenticated, CodeAlreadyAuthenticated},
	{ErrUnknownIdentity, CodeUnknownIdentity},
	{ErrDuplicateIdentity, CodeDuplicateIdentity},
	{ErrUnknownTarget, CodeUnknownTarget},
}

// Code maps a domain error onto the code sent back to the client.
// Anything unmapped is CodeInternal.
func Code(err error) string {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if stderrors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// FromCode is the client-side inverse of Code.
func FromCode(code string) error {
	if code == CodeOK || code == "" {
		return nil
	}
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return fmt.Errorf("server error: %s", code)
}
