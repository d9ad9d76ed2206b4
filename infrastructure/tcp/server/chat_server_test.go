package server

import (
	"bufio"
	"context"
	"cow-chat/art"
	"cow-chat/domain"
	cerrors "cow-chat/errors"
	"cow-chat/protocol"
	"cow-chat/runtime"
	"cow-chat/runtime/workers"
	"cow-chat/services"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type stack struct {
	address      string
	registry     *runtime.Registry
	orchestrator *runtime.Orchestrator
	server       *ChatServer
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func startStack(t *testing.T) *stack {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry(log, art.NewCatalog("moose", "sheep"), 16)
	sup := workers.NewSupervisor(log, 50*time.Millisecond)
	orchestrator := runtime.NewOrchestrator(log, sup, registry, time.Second, 0)
	chatService := services.NewChatService(log, registry, art.CowRenderer{}, nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := &stack{
		address:      listener.Addr().String(),
		registry:     registry,
		orchestrator: orchestrator,
		server:       NewChatServer(log, orchestrator, chatService),
		cancel:       cancel,
	}
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		_ = orchestrator.Start(ctx)
	}()
	go func() {
		defer s.wg.Done()
		_ = s.server.Serve(ctx, listener)
	}()
	t.Cleanup(s.stop)
	return s
}

func (s *stack) stop() {
	s.cancel()
	s.orchestrator.Stop()
	s.server.Wait()
	s.wg.Wait()
}

// rawClient speaks the protocol the way netcat would: untagged lines in,
// JSON frames out.
type rawClient struct {
	t       *testing.T
	conn    net.Conn
	scanner *bufio.Scanner
}

func dial(t *testing.T, address string) *rawClient {
	t.Helper()
	conn, err := net.Dial("tcp", address)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	c := &rawClient{t: t, conn: conn, scanner: bufio.NewScanner(conn)}
	c.scanner.Buffer(make([]byte, 0, 4096), 1024*1024)

	welcome := c.frame()
	require.Equal(t, protocol.KindWelcome, welcome.Kind)
	return c
}

func (c *rawClient) send(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

func (c *rawClient) frame() protocol.Frame {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	require.True(c.t, c.scanner.Scan(), "expected a frame")
	frame, err := protocol.Decode(c.scanner.Bytes())
	require.NoError(c.t, err)
	return frame
}

func (c *rawClient) do(line string) protocol.Frame {
	c.t.Helper()
	c.send(line)
	frame := c.frame()
	require.Equal(c.t, protocol.KindReply, frame.Kind)
	return frame
}

func (c *rawClient) closed() bool {
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return !c.scanner.Scan()
}

func TestChatServer_Say(t *testing.T) {
	req := require.New(t)
	s := startStack(t)
	sheep := dial(t, s.address)
	moose := dial(t, s.address)

	req.True(sheep.do("login sheep").OK)
	req.True(moose.do("login moose").OK)

	// When sheep says hello to moose
	reply := sheep.do("say moose hello")

	// Then sheep is acknowledged and moose receives the art as a push
	req.True(reply.OK)
	push := moose.frame()
	req.Equal(protocol.KindPush, push.Kind)
	req.Equal("sheep", push.From)
	req.Contains(push.Text, "From sheep: hello")
}

func TestChatServer_Tagged_Command(t *testing.T) {
	req := require.New(t)
	s := startStack(t)
	c := dial(t, s.address)

	reply := c.do(protocol.Tag("abc", "cows"))

	req.Equal("abc", reply.ID)
	req.Equal([]string{"moose", "sheep"}, reply.Items)
}

func TestChatServer_Blank_Lines_And_Errors_Keep_Connection(t *testing.T) {
	req := require.New(t)
	s := startStack(t)
	c := dial(t, s.address)

	// Given blank lines and garbage
	c.send("")
	c.send("   ")
	req.False(c.do("say moose hi").OK)
	req.False(c.do("login giraffe").OK)

	// Then the connection still serves commands
	req.True(c.do("login sheep").OK)
}

func TestChatServer_Quit_Frees_Identity(t *testing.T) {
	req := require.New(t)
	s := startStack(t)
	first := dial(t, s.address)
	req.True(first.do("login sheep").OK)

	// When sheep quits
	reply := first.do("quit")
	req.True(reply.OK)

	// Then the server closes the connection and the name is free again
	req.True(first.closed())
	second := dial(t, s.address)
	req.True(second.do("login sheep").OK)
}

func TestChatServer_Disconnect_Frees_Identity(t *testing.T) {
	req := require.New(t)
	s := startStack(t)
	c := dial(t, s.address)
	req.True(c.do("login sheep").OK)

	// When the client vanishes
	req.NoError(c.conn.Close())

	// Then its name is released
	req.Eventually(func() bool {
		_, found := s.registry.Lookup("sheep")
		return !found
	}, 2*time.Second, 20*time.Millisecond)
}

func TestChatServer_Shutdown_Notifies_Clients(t *testing.T) {
	req := require.New(t)
	s := startStack(t)
	c := dial(t, s.address)
	req.True(c.do("login moose").OK)

	// When the server shuts down
	go s.stop()

	// Then the client gets a farewell push and the connection ends
	push := c.frame()
	req.Equal(protocol.KindPush, push.Kind)
	req.True(strings.Contains(push.Text, "shutting down"))
	req.True(c.closed())
	req.Empty(s.registry.ListIdentities())
	req.Equal([]domain.Identity{"moose", "sheep"}, s.registry.FreeIdentities())
}

func TestChatServer_Faulty_Client_Does_Not_Affect_Others(t *testing.T) {
	req := require.New(t)
	s := startStack(t)
	a := dial(t, s.address)
	b := dial(t, s.address)
	req.True(a.do("login moose").OK)
	req.True(b.do("login sheep").OK)

	// Given a sends garbage and then vanishes mid-line
	req.False(a.do("\x00\x01 garbage").OK)
	req.False(a.do("login").OK)
	_, err := a.conn.Write([]byte("say sheep half a comm"))
	req.NoError(err)
	req.NoError(a.conn.Close())
	req.Eventually(func() bool {
		_, found := s.registry.Lookup("moose")
		return !found
	}, 2*time.Second, 20*time.Millisecond)

	// Then b is still registered and fully working
	owner, found := s.registry.Lookup("sheep")
	req.True(found)
	req.NotNil(owner)
	req.Equal([]string{"sheep"}, b.do("who").Items)
	c := dial(t, s.address)
	req.True(c.do("login moose").OK)
	req.True(c.do("say sheep still here").OK)
	push := b.frame()
	req.Equal(protocol.KindPush, push.Kind)
	req.Contains(push.Text, "still here")
}

func TestChatServer_Line_Too_Long_Keeps_Connection(t *testing.T) {
	req := require.New(t)
	s := startStack(t)
	c := dial(t, s.address)

	// When a line longer than the limit is sent
	reply := c.do("yield " + strings.Repeat("x", 2*maxLineLength))

	// Then it is rejected inline and the next command still works
	req.False(reply.OK)
	req.Equal(cerrors.CodeMalformed, reply.Code)
	req.True(c.do("login sheep").OK)
}

func TestChatServer_Hash_Without_Command_Gets_Reply(t *testing.T) {
	req := require.New(t)
	s := startStack(t)
	c := dial(t, s.address)
	req.True(c.do("login sheep").OK)

	reply := c.do("#hello")

	req.False(reply.OK)
	req.Equal(cerrors.CodeUnknownCommand, reply.Code)
	req.Empty(reply.ID)
}

func TestReadLine(t *testing.T) {
	req := require.New(t)
	input := "who\r\n" + strings.Repeat("y", 40) + "\ncows\nquit"
	reader := bufio.NewReaderSize(strings.NewReader(input), 16)

	line, err := readLine(reader)
	req.NoError(err)
	req.Equal("who", line)

	_, err = readLine(reader)
	req.ErrorIs(err, errLineTooLong)

	line, err = readLine(reader)
	req.NoError(err)
	req.Equal("cows", line)

	// A last line without terminator is still read
	line, err = readLine(reader)
	req.NoError(err)
	req.Equal("quit", line)

	_, err = readLine(reader)
	req.ErrorIs(err, io.EOF)
}
