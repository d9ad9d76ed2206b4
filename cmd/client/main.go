package main

import (
	"context"
	"cow-chat/infrastructure/tcp/client"
	"cow-chat/internal"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK = iota
	exitRuntime
	exitConfig
)

const (
	defaultHost = "localhost"
	defaultPort = 1337
	dialTimeout = 5 * time.Second
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	host, port, err := parseArgs(args)
	if err != nil {
		return exitConfig, err
	}

	config, err := internal.LoadClientConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	color.Enable = config.Colours

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	address := net.JoinHostPort(host, strconv.Itoa(port))
	chatClient, err := client.Dial(ctx, log, address, config.CommandTimeout)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = chatClient.Close() }()

	sh, err := newShell(log, chatClient, config)
	if err != nil {
		return exitRuntime, err
	}
	defer sh.Close()

	if err := sh.Run(); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

// parseArgs reads the optional positional host and port.
func parseArgs(args []string) (string, int, error) {
	host, port := defaultHost, defaultPort
	if len(args) > 2 {
		return "", 0, fmt.Errorf("usage: client [host [port]]")
	}
	if len(args) > 0 {
		host = args[0]
	}
	if len(args) > 1 {
		p, err := internal.ParsePort(args[1])
		if err != nil {
			return "", 0, err
		}
		port = p
	}
	return host, port, nil
}
