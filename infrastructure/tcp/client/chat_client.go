// Package client is the network side of the chat shell.
//
// A ChatClient runs two goroutines for the lifetime of the connection: a
// receiver decoding server frames and an I/O actor owning the writer and the
// single pending request. The interactive shell only talks to them through
// Do and Pushes, which are channel based.
package client

import (
	"context"
	"cow-chat/contract"
	"cow-chat/protocol"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

const pushBufferSize = 64

var _ contract.Requester = (*ChatClient)(nil)

type ChatClient struct {
	log     *slog.Logger
	conn    net.Conn
	timeout time.Duration

	requests chan request
	inbound  chan protocol.Frame
	pushes   chan protocol.Frame
	slot     chan struct{}
	done     chan struct{}

	closeOnce sync.Once
}

// Dial connects to a chat server. timeout bounds every command round trip.
func Dial(ctx context.Context, log *slog.Logger, address string, timeout time.Duration) (*ChatClient, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("could not connect to server at %s: %w", address, err)
	}
	return NewChatClient(log, conn, timeout), nil
}

// NewChatClient takes ownership of conn and starts the receiver and I/O goroutines.
func NewChatClient(log *slog.Logger, conn net.Conn, timeout time.Duration) *ChatClient {
	c := &ChatClient{
		log:      log,
		conn:     conn,
		timeout:  timeout,
		requests: make(chan request),
		inbound:  make(chan protocol.Frame),
		pushes:   make(chan protocol.Frame, pushBufferSize),
		slot:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go c.receive()
	go c.run()
	return c
}

// Pushes delivers the welcome banner and every unsolicited message.
// It is closed when the connection ends.
func (c *ChatClient) Pushes() <-chan protocol.Frame {
	return c.pushes
}

// Done is closed once the connection is gone.
func (c *ChatClient) Done() <-chan struct{} {
	return c.done
}

// Close shuts the connection and waits for the I/O goroutines to exit.
func (c *ChatClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	<-c.done
	return err
}
