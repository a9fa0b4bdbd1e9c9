package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// spawnWorkerPool spawns N delivery goroutines based on concurrency configuration
func (n *Notifier) spawnWorkerPool(ctx context.Context) {
	n.logger.Info("Spawning delivery pool",
		slog.Int("concurrency", n.concurrency),
		slog.String("worker_id", n.workerID),
	)

	for i := 0; i < n.concurrency; i++ {
		n.wg.Add(1)
		go n.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each delivery goroutine
func (n *Notifier) workerLoop(ctx context.Context, workerNum int) {
	defer n.wg.Done()

	workerName := fmt.Sprintf("%s-%d", n.workerID, workerNum)
	n.logger.Info("Delivery goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-n.stopChan:
			n.logger.Info("Delivery goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			n.logger.Info("Delivery goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case msg, ok := <-n.jobsChan:
			if !ok {
				return
			}

			err := n.processDelivery(ctx, msg)

			channel := n.rabbitClient.GetChannel()
			if channel == nil {
				n.logger.Error("Failed to get RabbitMQ channel for ACK/NACK",
					slog.String("worker_name", workerName),
					slog.String("kind", msg.Request.Kind),
				)
				continue
			}

			if err != nil {
				n.logger.Error("Delivery processing failed",
					slog.String("worker_name", workerName),
					slog.String("kind", msg.Request.Kind),
					slog.String("error", err.Error()),
				)

				requeue := n.shouldRequeue(err)
				if nackErr := channel.Nack(msg.DeliveryTag, false, requeue); nackErr != nil {
					n.logger.Error("Failed to NACK message",
						slog.String("worker_name", workerName),
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if ackErr := channel.Ack(msg.DeliveryTag, false); ackErr != nil {
				n.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}

// shouldRequeue determines if a delivery should be requeued based on the error type
func (n *Notifier) shouldRequeue(err error) bool {
	if errors.Is(err, ErrInvalidPayload) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return true
	}

	return false
}
