package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/atsgate/smsoperator/internal/operator_service/domain"
)

// StatusRefresher is the part of the operator adapter the poller uses.
type StatusRefresher interface {
	RefreshDeliveryStatus(ctx context.Context, messages []*domain.OutboundMessage) ([]domain.StatusUpdate, error)
}

// StatusPoller periodically asks the operator for the delivery status of
// messages that are still in flight. Messages enter the poll set once their
// sent_at is older than MinAge, so the operator has had time to produce a
// final status.
type StatusPoller struct {
	repo      domain.MessageRepository
	refresher StatusRefresher
	logger    *slog.Logger

	Interval  time.Duration
	MinAge    time.Duration
	BatchSize int
}

// NewStatusPoller creates a StatusPoller with the given schedule.
func NewStatusPoller(repo domain.MessageRepository, refresher StatusRefresher, logger *slog.Logger, interval, minAge time.Duration, batchSize int) *StatusPoller {
	return &StatusPoller{
		repo:      repo,
		refresher: refresher,
		logger:    logger.With("component", "status_poller"),
		Interval:  interval,
		MinAge:    minAge,
		BatchSize: batchSize,
	}
}

// Run blocks, polling on every tick until the context is cancelled. A failed
// poll is logged and retried on the next tick; the same batch is picked up
// again because its messages stay in the sending state.
func (p *StatusPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.logger.Info("Status poller started", "interval", p.Interval, "min_age", p.MinAge, "batch_size", p.BatchSize)

	for {
		select {
		case <-ticker.C:
			pollCtx, cancel := context.WithTimeout(ctx, p.Interval)
			if err := p.PollOnce(pollCtx); err != nil {
				p.logger.ErrorContext(pollCtx, "Delivery status poll failed", "error", err)
			}
			cancel()
		case <-ctx.Done():
			p.logger.Info("Status poller stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// PollOnce runs a single poll cycle: load in-flight messages and refresh
// their delivery status in one operator exchange.
func (p *StatusPoller) PollOnce(ctx context.Context) error {
	sentBefore := time.Now().UTC().Add(-p.MinAge)
	messages, err := p.repo.ListInFlight(ctx, sentBefore, p.BatchSize)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		p.logger.DebugContext(ctx, "No in-flight messages to refresh")
		return nil
	}

	p.logger.InfoContext(ctx, "Refreshing delivery status", "count", len(messages))

	start := time.Now()
	updates, err := p.refresher.RefreshDeliveryStatus(ctx, messages)
	operatorRequestDurationHist.WithLabelValues("SMS-Status").Observe(time.Since(start).Seconds())
	if err != nil {
		operatorRequestsCounter.WithLabelValues("SMS-Status", failureOutcome(err)).Inc()
		return err
	}
	operatorRequestsCounter.WithLabelValues("SMS-Status", "success").Inc()

	for _, update := range updates {
		messageStatesCounter.WithLabelValues(string(update.State)).Inc()
	}
	return nil
}
