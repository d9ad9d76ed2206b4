package runtime

import (
	"bufio"
	"context"
	"cow-chat/domain"
	"cow-chat/protocol"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func startDelivery(t *testing.T, registry *Registry) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	worker := NewDeliveryWorker(logs.GetLoggerFromLevel(slog.LevelDebug), registry)
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDeliveryWorker_Pushes_In_Order(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(8)
	sheep, conn := openSession(t, registry)
	req.NoError(registry.Register("sheep", sheep))
	startDelivery(t, registry)

	// When moose sends three messages to sheep
	for _, text := range []string{"one", "two", "three"} {
		req.NoError(registry.Deliver("sheep", domain.NewMessage(domain.Direct, "moose", text)))
	}

	// Then sheep reads three push frames in the same order
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	scanner := bufio.NewScanner(conn)
	var texts []string
	for len(texts) < 3 && scanner.Scan() {
		frame, err := protocol.Decode(scanner.Bytes())
		req.NoError(err)
		req.Equal(protocol.KindPush, frame.Kind)
		req.Equal("moose", frame.From)
		texts = append(texts, frame.Text)
	}
	req.Equal([]string{"one", "two", "three"}, texts)
}

func TestDeliveryWorker_Closes_Session_On_Write_Failure(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(8)
	sheep, conn := openSession(t, registry)
	req.NoError(registry.Register("sheep", sheep))
	startDelivery(t, registry)

	// Given the peer went away without saying goodbye
	req.NoError(conn.Close())

	// When a message is queued for it
	req.NoError(registry.Deliver("sheep", domain.NewMessage(domain.Direct, "moose", "hi")))

	// Then the session is torn down and its name freed
	select {
	case <-sheep.Done():
	case <-time.After(2 * time.Second):
		req.Fail("session should have been closed")
	}
	_, found := registry.Lookup("sheep")
	req.False(found)
}

func TestDeliveryWorker_Write_Timeout_Closes_Session(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(8)
	// Given a recipient that never reads
	sheep, _ := openSession(t, registry)
	sheep.writeTimeout = 50 * time.Millisecond
	req.NoError(registry.Register("sheep", sheep))
	startDelivery(t, registry)

	// When a message is queued for it
	req.NoError(registry.Deliver("sheep", domain.NewMessage(domain.Direct, "moose", "hi")))

	// Then the write deadline expires and the session is closed
	select {
	case <-sheep.Done():
	case <-time.After(2 * time.Second):
		req.Fail("session should have been closed")
	}
}
