package client

import (
	"context"
	"cow-chat/errors"
	"cow-chat/protocol"

	"github.com/google/uuid"
)

type request struct {
	id      string
	command string
	reply   chan protocol.Frame
}

// Do sends one command and blocks until its reply arrives, the client
// timeout or ctx expires, or the connection ends.
//
// Only one command is in flight at a time; concurrent callers queue for the
// slot within their own deadline, so a completion query can never deadlock
// against a command. A server-side refusal is a reply like any other: check
// Frame.OK or Frame.Err. The returned error is only about the round trip.
func (c *ChatClient) Do(ctx context.Context, command string) (protocol.Frame, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return protocol.Frame{}, errors.ErrBridgeTimeout
	case <-c.done:
		return protocol.Frame{}, errors.ErrDisconnected
	}
	defer func() { <-c.slot }()

	req := request{
		id:      uuid.NewString(),
		command: command,
		reply:   make(chan protocol.Frame, 1),
	}

	select {
	case c.requests <- req:
	case <-ctx.Done():
		return protocol.Frame{}, errors.ErrBridgeTimeout
	case <-c.done:
		return protocol.Frame{}, errors.ErrDisconnected
	}

	select {
	case frame := <-req.reply:
		return frame, nil
	case <-ctx.Done():
		// The request is not retracted. Its id no longer matches anything the
		// actor will wait for once the next command is sent.
		c.log.Debug("Command timed out", "id", req.id, "command", req.command)
		return protocol.Frame{}, errors.ErrBridgeTimeout
	case <-c.done:
		return protocol.Frame{}, errors.ErrDisconnected
	}
}

// run is the I/O actor. It alone writes to the connection and remembers the
// request awaiting a reply. Replies carrying any other id are late answers to
// expired requests and are dropped.
func (c *ChatClient) run() {
	defer close(c.done)

	var pending *request
	for {
		select {
		case req := <-c.requests:
			if pending != nil {
				c.log.Debug("Abandoning expired request", "id", pending.id)
			}
			pending = &req
			if _, err := c.conn.Write([]byte(protocol.Tag(req.id, req.command) + "\n")); err != nil {
				c.log.Warn("Failed to send command", "error", err)
				_ = c.conn.Close()
				pending = nil
			}
		case frame, ok := <-c.inbound:
			if !ok {
				return
			}
			if pending == nil || frame.ID != pending.id {
				c.log.Debug("Discarding orphaned reply", "id", frame.ID)
				continue
			}
			pending.reply <- frame
			pending = nil
		}
	}
}
