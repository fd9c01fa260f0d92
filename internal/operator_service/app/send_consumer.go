package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/atsgate/smsoperator/internal/operator_service/domain"
	"github.com/atsgate/smsoperator/internal/platform/messagebroker"
)

const (
	// SendJobSubject is the NATS subject carrying batches to publish.
	SendJobSubject = "sms.operator.send"
	// SendJobQueueGroup makes each job land on exactly one worker instance.
	SendJobQueueGroup = "sms_operator_workers"
	// StatusEventSubject receives a status event per reconciled message.
	StatusEventSubject = "sms.operator.status"

	jobTimeout = 60 * time.Second
)

// SendJobPayload is the message expected on the send-job subject. Messages
// are created (queued) by the upstream API service; the job only references
// them by identifier.
type SendJobPayload struct {
	BatchID    string  `json:"batch_id" validate:"omitempty,uuid4"`
	MessageIDs []int64 `json:"message_ids" validate:"required,min=1,dive,gt=0"`
}

// StatusEvent is published for every message whose delivery state was updated
// from an operator response.
type StatusEvent struct {
	BatchID     string               `json:"batch_id,omitempty"`
	MessageID   int64                `json:"message_id"`
	State       domain.DeliveryState `json:"state"`
	SenderState int                  `json:"sender_state"`
	Error       *string              `json:"error,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

// OperatorPublisher is the part of the operator adapter the consumer uses.
type OperatorPublisher interface {
	PublishBatch(ctx context.Context, messages []*domain.OutboundMessage) ([]domain.StatusUpdate, error)
}

// Broker is the message-broker surface the consumer needs; satisfied by
// *messagebroker.NatsClient.
type Broker interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(subject, queueGroup string, handler nats.MsgHandler) (*nats.Subscription, error)
}

var _ Broker = (*messagebroker.NatsClient)(nil)

// SendConsumer consumes send jobs from NATS, loads the referenced messages
// and hands them to the operator adapter as one batch.
type SendConsumer struct {
	natsClient Broker
	repo       domain.MessageRepository
	publisher  OperatorPublisher
	logger     *slog.Logger
	validate   *validator.Validate
	sub        *nats.Subscription
}

// NewSendConsumer creates a SendConsumer.
func NewSendConsumer(natsClient Broker, repo domain.MessageRepository, publisher OperatorPublisher, logger *slog.Logger) *SendConsumer {
	return &SendConsumer{
		natsClient: natsClient,
		repo:       repo,
		publisher:  publisher,
		logger:     logger.With("component", "send_consumer"),
		validate:   validator.New(),
	}
}

// Start subscribes to the send-job subject. Jobs are handled sequentially per
// delivery; each gets its own timeout context.
func (c *SendConsumer) Start(ctx context.Context) error {
	if c.natsClient == nil {
		return errors.New("NATS client not initialized in SendConsumer")
	}

	handler := func(msg *nats.Msg) {
		jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if err := c.handleJob(jobCtx, msg.Data); err != nil {
			c.logger.ErrorContext(jobCtx, "Failed to process send job", "error", err)
		}
	}

	sub, err := c.natsClient.Subscribe(SendJobSubject, SendJobQueueGroup, handler)
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

// Stop unsubscribes from the send-job subject.
func (c *SendConsumer) Stop() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe send consumer", "error", err)
		}
	}
}

func (c *SendConsumer) handleJob(ctx context.Context, data []byte) error {
	var job SendJobPayload
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("failed to unmarshal send job payload: %w", err)
	}
	if err := c.validate.Struct(job); err != nil {
		return fmt.Errorf("invalid send job payload: %w", err)
	}
	if job.BatchID == "" {
		job.BatchID = uuid.NewString()
	}

	c.logger.InfoContext(ctx, "Processing send job", "batch_id", job.BatchID, "count", len(job.MessageIDs))

	messages, err := c.repo.GetByIDs(ctx, job.MessageIDs)
	if err != nil {
		return fmt.Errorf("failed to load messages for send job: %w", err)
	}
	if len(messages) != len(job.MessageIDs) {
		return fmt.Errorf("send job references %d messages but only %d exist", len(job.MessageIDs), len(messages))
	}

	start := time.Now()
	updates, err := c.publisher.PublishBatch(ctx, messages)
	operatorRequestDurationHist.WithLabelValues("SMS").Observe(time.Since(start).Seconds())
	if err != nil {
		operatorRequestsCounter.WithLabelValues("SMS", failureOutcome(err)).Inc()
		return err
	}
	operatorRequestsCounter.WithLabelValues("SMS", "success").Inc()

	c.publishStatusEvents(ctx, job.BatchID, updates)
	return nil
}

// publishStatusEvents pushes one event per reconciled message so downstream
// services see delivery-state changes without polling the database.
func (c *SendConsumer) publishStatusEvents(ctx context.Context, batchID string, updates []domain.StatusUpdate) {
	now := time.Now().UTC()
	for _, update := range updates {
		messageStatesCounter.WithLabelValues(string(update.State)).Inc()

		event := StatusEvent{
			BatchID:     batchID,
			MessageID:   update.MessageID,
			State:       update.State,
			SenderState: int(update.SenderState),
			Error:       update.Error,
			OccurredAt:  now,
		}
		data, err := json.Marshal(event)
		if err != nil {
			c.logger.ErrorContext(ctx, "Failed to marshal status event", "error", err, "message_id", update.MessageID)
			continue
		}
		if err := c.natsClient.Publish(ctx, StatusEventSubject, data); err != nil {
			c.logger.ErrorContext(ctx, "Failed to publish status event", "error", err, "message_id", update.MessageID)
		}
	}
}

// failureOutcome labels a failed exchange for metrics.
func failureOutcome(err error) string {
	var sendErr *domain.SendingError
	if errors.As(err, &sendErr) {
		return sendErr.Kind.String()
	}
	return "internal"
}
