// Package notifier is the delivery half of the notification pipeline:
// it consumes queued delivery requests from RabbitMQ and fans them out
// to the push, SMS, and email endpoints. It also runs the periodic
// expiry and session-reminder sweeps, whose notices feed back into the
// same queue.
package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/notify"
	"github.com/tolkbridge/booking-be/internal/booking/service"
	"github.com/tolkbridge/booking-be/shared/rabbitmq"
)

// Config holds notifier configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Service       *service.Service
	Sender        *Sender
	WorkerID      string
	Concurrency   int
	PrefetchCount int
	SweepInterval time.Duration
}

// Notifier consumes delivery requests and runs the booking sweeps.
type Notifier struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	service       *service.Service
	sender        *Sender
	workerID      string
	concurrency   int
	prefetchCount int
	sweepInterval time.Duration
	jobsChan      chan *deliveryMessage
	stopChan      chan struct{}
	wg            sync.WaitGroup
}

// deliveryMessage pairs a parsed request with its AMQP delivery tag so
// the processing goroutine can ACK or NACK it.
type deliveryMessage struct {
	Request     *notify.DeliveryRequest
	DeliveryTag uint64
}

// New creates a notifier instance
func New(cfg *Config) *Notifier {
	return &Notifier{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		service:       cfg.Service,
		sender:        cfg.Sender,
		workerID:      cfg.WorkerID,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		sweepInterval: cfg.SweepInterval,
		jobsChan:      make(chan *deliveryMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming delivery requests and running the sweeps. It
// blocks until the context is canceled.
func (n *Notifier) Start(ctx context.Context) error {
	n.logger.Info("Starting notifier",
		slog.String("worker_id", n.workerID),
		slog.Int("concurrency", n.concurrency),
		slog.Duration("sweep_interval", n.sweepInterval),
	)

	deliveries, err := n.setupConsumer(ctx)
	if err != nil {
		return err
	}

	n.spawnWorkerPool(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.runSweeps(ctx)
	}()

	n.startMessageDispatcher(ctx, deliveries)
	return nil
}

// Stop gracefully stops the notifier
func (n *Notifier) Stop() {
	n.logger.Info("Stopping notifier...")
	close(n.stopChan)
	n.wg.Wait()
	n.logger.Info("Notifier stopped")
}

// runSweeps periodically times out overdue bookings and sends session
// reminders.
func (n *Notifier) runSweeps(ctx context.Context) {
	ticker := time.NewTicker(n.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Sweep loop stopped - context canceled")
			return
		case <-n.stopChan:
			n.logger.Info("Sweep loop stopped")
			return
		case <-ticker.C:
			if expired, err := n.service.ExpireOverdue(ctx); err != nil {
				n.logger.Error("Expiry sweep failed", slog.Any("error", err))
			} else if expired > 0 {
				n.logger.Info("Expiry sweep finished", slog.Int("expired", expired))
			}

			if reminded, err := n.service.SendSessionReminders(ctx); err != nil {
				n.logger.Error("Reminder sweep failed", slog.Any("error", err))
			} else if reminded > 0 {
				n.logger.Info("Reminder sweep finished", slog.Int("reminded", reminded))
			}
		}
	}
}
