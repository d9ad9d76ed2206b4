package main

import (
	"context"
	"cow-chat/art"
	"cow-chat/contract"
	"cow-chat/infrastructure/grpc/server"
	tcpserver "cow-chat/infrastructure/tcp/server"
	"cow-chat/internal"
	"cow-chat/moderation"
	"cow-chat/runtime"
	"cow-chat/runtime/workers"
	"cow-chat/services"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK = iota
	exitRuntime
	exitConfig
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadServerConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Cows and optional moderation
	catalog := art.NewCowCatalog()
	censor, err := buildCensor(log, config)
	if err != nil {
		return exitConfig, err
	}

	// 3. Supervision & Orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry(log, catalog, config.QueueSize)
	orchestrator := runtime.NewOrchestrator(
		log, sup, registry, config.DeliveryTimeout, config.StatsInterval,
	)
	chatService := services.NewChatService(log, registry, art.CowRenderer{}, censor)
	chatServer := tcpserver.NewChatServer(log, orchestrator, chatService)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := net.JoinHostPort(config.Host, fmt.Sprint(config.Port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	var health *server.HealthServer
	if config.HealthPort > 0 {
		healthAddress := net.JoinHostPort(config.Host, fmt.Sprint(config.HealthPort))
		healthListener, err := net.Listen("tcp", healthAddress)
		if err != nil {
			_ = listener.Close()
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", healthAddress, err)
		}
		health = server.NewHealthServer(log)
		go func() {
			if err := health.Serve(healthListener); err != nil {
				log.Error("Health server stopped", "error", err)
			}
		}()
	}

	// 5. Start the workers
	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		_ = orchestrator.Start(ctx)
	}()

	// 6. Serve until a signal arrives
	if health != nil {
		health.SetServing(true)
	}
	log.Info("Starting chat server", "address", address, "cows", len(catalog.Identities()))
	serveErr := chatServer.Serve(ctx, listener)

	// 7. Final Cleanup
	log.Info("Shutting down gracefully...")
	if health != nil {
		health.SetServing(false)
	}
	stop()
	orchestrator.Stop()
	chatServer.Wait()
	background.Wait()
	if health != nil {
		health.Stop()
	}

	if serveErr != nil {
		return exitRuntime, serveErr
	}
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

// buildCensor returns nil when no word list directory is configured.
func buildCensor(log *slog.Logger, config internal.ServerConfig) (contract.Censor, error) {
	if config.CensoredDir == "" {
		return nil, nil
	}
	char, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}
	data, err := runtime.NewCensoredLoader(os.DirFS(config.CensoredDir)).LoadAll(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load censored words from %s: %w", config.CensoredDir, err)
	}
	moderator, err := moderation.NewModerator(data.Words, char)
	if err != nil {
		return nil, err
	}
	log.Info("Moderation enabled", "words", len(data.Words), "languages", data.Languages)
	return moderator, nil
}
