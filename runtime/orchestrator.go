// Package runtime owns the live state of the chat server: sessions, identity
// bindings, delivery queues and the background workers draining them.
// It contains no protocol parsing and no network accept logic.
package runtime

import (
	"context"
	"cow-chat/contract"
	"cow-chat/protocol"
	"log/slog"
	"net"
	"time"
)

const shutdownNotice = "Server is shutting down, bye!"

type Orchestrator struct {
	log           *slog.Logger
	supervisor    contract.ISupervisor
	registry      *Registry
	writeTimeout  time.Duration
	statsInterval time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry,
	writeTimeout, statsInterval time.Duration) *Orchestrator {
	return &Orchestrator{
		log:           log,
		supervisor:    supervisor,
		registry:      registry,
		writeTimeout:  writeTimeout,
		statsInterval: statsInterval,
	}
}

func (o *Orchestrator) Registry() *Registry { return o.registry }

// Open registers a freshly accepted connection as an Unauthenticated session.
func (o *Orchestrator) Open(conn net.Conn) *Session {
	s := o.registry.Open(conn, o.writeTimeout)
	s.Logger().Info("Client connected")
	return s
}

// Start registers the background workers and blocks while they run.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.supervisor.Add(NewDeliveryWorker(o.log, o.registry))
	if o.statsInterval > 0 {
		o.supervisor.Add(NewStatsWorker(o.log, o.registry, o.statsInterval))
	}

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop tells every connected client the server is going away, tears all
// sessions down and stops the workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	for _, s := range o.registry.Shutdown() {
		_ = s.Send(protocol.Push("", shutdownNotice))
		s.Close()
	}
	o.supervisor.Stop()
}
