package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tolkbridge/booking-be/internal/booking/notify"
)

// setupConsumer sets up RabbitMQ consumer with QoS and returns delivery channel
func (n *Notifier) setupConsumer(ctx context.Context) (<-chan amqp.Delivery, error) {
	channel := n.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// prefetch_count bounds the unacknowledged messages per consumer;
	// global=false keeps it per-consumer.
	err := channel.Qos(
		n.prefetchCount,
		0,
		false,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	n.logger.Info("RabbitMQ QoS configured",
		slog.Int("prefetch_count", n.prefetchCount),
	)

	deliveries, err := n.rabbitClient.Consume(n.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	n.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", n.workerID),
	)

	return deliveries, nil
}

// startMessageDispatcher listens to RabbitMQ deliveries and dispatches
// parsed requests to the worker pool
func (n *Notifier) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	n.logger.Info("Message dispatcher started",
		slog.String("worker_id", n.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				n.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var req notify.DeliveryRequest
			if err := json.Unmarshal(delivery.Body, &req); err != nil {
				n.logger.Error("Failed to parse delivery request JSON",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// NACK without requeue - malformed messages should go to DLQ
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					n.logger.Error("Failed to NACK malformed message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			switch req.Kind {
			case notify.DeliveryPush, notify.DeliverySMS, notify.DeliveryEmail:
			default:
				n.logger.Error("Unknown delivery kind",
					slog.String("kind", req.Kind),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					n.logger.Error("Failed to NACK message with unknown kind",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			msg := &deliveryMessage{
				Request:     &req,
				DeliveryTag: delivery.DeliveryTag,
			}

			select {
			case n.jobsChan <- msg:
				n.logger.Debug("Delivery dispatched to worker pool",
					slog.String("kind", req.Kind),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				n.logger.Info("Message dispatcher stopped while dispatching")
				// NACK with requeue so the message is reprocessed after restart
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					n.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
