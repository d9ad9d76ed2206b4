package runtime

import (
	"context"
	"cow-chat/contract"
	"cow-chat/protocol"
	"log/slog"
)

var _ contract.Worker = (*DeliveryWorker)(nil)

// DeliveryWorker drains the delivery queues and pushes messages to their recipients.
//
// It sleeps until the registry signals an enqueue, then takes the head of
// every non-empty queue and writes it, repeating until all queues are empty.
// Each write is bounded by the session write timeout; a failed write tears
// the session down exactly like a client disconnect would.
type DeliveryWorker struct {
	log      *slog.Logger
	registry *Registry
}

func NewDeliveryWorker(log *slog.Logger, registry *Registry) *DeliveryWorker {
	return &DeliveryWorker{log: log, registry: registry}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	for {
		batch := w.registry.Next()
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				w.log.Debug("Context done, stopping delivery")
				return nil
			case <-w.registry.Wake():
				continue
			}
		}

		for _, out := range batch {
			w.deliver(out)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (w *DeliveryWorker) deliver(out Outgoing) {
	frame := protocol.Push(string(out.Message.Sender), out.Message.Text)
	if err := out.Session.Send(frame); err != nil {
		out.Session.Logger().Warn("Delivery failed, closing session",
			"message_id", out.Message.ID.String(),
			"error", err)
		out.Session.Close()
	}
}
