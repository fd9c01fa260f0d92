package operator

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/atsgate/smsoperator/internal/operator_service/domain"
	"github.com/atsgate/smsoperator/internal/platform/httpclient"
)

// Adapter implements the ATS SMS operator service (https://www.sms-operator.cz/).
// It serializes message batches into the operator's XML schema, posts them,
// reconciles the response against the batch and persists the resulting
// delivery states. Delivery checking is supported through the SMS-Status
// request type.
type Adapter struct {
	cfg    Config
	client *httpclient.Client
	repo   domain.MessageRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAdapter creates an Adapter. The client is the shared logging HTTP client
// and repo the persistence collaborator owning the messages.
func NewAdapter(cfg Config, client *httpclient.Client, repo domain.MessageRepository, logger *slog.Logger) *Adapter {
	return &Adapter{
		cfg:    cfg,
		client: client,
		repo:   repo,
		logger: logger.With("provider", "sms-operator"),
		now:    time.Now,
	}
}

// Publish sends a single message and stamps its sent_at timestamp.
func (a *Adapter) Publish(ctx context.Context, message *domain.OutboundMessage) ([]domain.StatusUpdate, error) {
	return a.PublishBatch(ctx, []*domain.OutboundMessage{message})
}

// PublishBatch sends a batch of messages in one request and stamps sent_at on
// every persisted update.
func (a *Adapter) PublishBatch(ctx context.Context, messages []*domain.OutboundMessage) ([]domain.StatusUpdate, error) {
	sentAt := a.now().UTC()
	return a.sendRequest(ctx, messages, RequestTypeSend, &sentAt)
}

// RefreshDeliveryStatus queries the operator for the delivery status of
// previously sent messages. No timestamp side effect.
func (a *Adapter) RefreshDeliveryStatus(ctx context.Context, messages []*domain.OutboundMessage) ([]domain.StatusUpdate, error) {
	return a.sendRequest(ctx, messages, RequestTypeDeliveryQuery, nil)
}

// sendRequest performs one full exchange: serialize, POST, parse, reconcile,
// persist. Nothing is persisted unless the response covers the batch exactly.
func (a *Adapter) sendRequest(ctx context.Context, messages []*domain.OutboundMessage, requestType RequestType, sentAt *time.Time) ([]domain.StatusUpdate, error) {
	body, err := buildRequest(a.cfg, messages, requestType)
	if err != nil {
		return nil, err
	}

	ids := messageIDs(messages)
	resp, err := a.client.Post(ctx, a.cfg.URL, "text/xml", body, "SMS operator", ids)
	if err != nil {
		return nil, &domain.SendingError{Kind: domain.SendErrTransport, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.SendingError{Kind: domain.SendErrHTTPStatus, HTTPStatus: resp.StatusCode}
	}

	parsed, err := parseResponse(a.cfg.UniqPrefix, resp.Body)
	if err != nil {
		return nil, err
	}

	if err := reconcile(ids, parsed); err != nil {
		return nil, err
	}

	patches, updates, err := mapStates(parsed, sentAt)
	if err != nil {
		return nil, err
	}

	if err := a.repo.ChangeAndSaveMany(ctx, patches); err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "Operator batch reconciled",
		"request_type", requestType.String(), "count", len(updates))
	return updates, nil
}

// reconcile enforces the strict 1:1 correspondence between the identifiers
// that were sent and the identifiers the operator replied about. A partial
// response is a protocol violation, not a partial success.
func reconcile(sentIDs []int64, parsed map[int64]domain.OperatorState) error {
	expected := make(map[int64]struct{}, len(sentIDs))
	for _, id := range sentIDs {
		expected[id] = struct{}{}
	}

	var missing []int64
	for id := range expected {
		if _, ok := parsed[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &domain.SendingError{Kind: domain.SendErrMissingIDs, MessageIDs: missing}
	}

	var extra []int64
	for id := range parsed {
		if _, ok := expected[id]; !ok {
			extra = append(extra, id)
		}
	}
	if len(extra) > 0 {
		return &domain.SendingError{Kind: domain.SendErrExtraIDs, MessageIDs: extra}
	}

	return nil
}

// mapStates turns reconciled operator codes into repository patches. An ERROR
// state carries the operator code's label as the message error; other states
// clear it. The raw code always lands in sender_state for diagnostics.
func mapStates(parsed map[int64]domain.OperatorState, sentAt *time.Time) (map[int64]domain.MessagePatch, []domain.StatusUpdate, error) {
	patches := make(map[int64]domain.MessagePatch, len(parsed))
	updates := make([]domain.StatusUpdate, 0, len(parsed))

	for id, operatorState := range parsed {
		state, ok := operatorState.DeliveryState()
		if !ok {
			return nil, nil, &domain.SendingError{Kind: domain.SendErrUnknownState, State: operatorState}
		}

		var errLabel *string
		if state == domain.DeliveryStateError {
			label := operatorState.Label()
			errLabel = &label
		}

		patches[id] = domain.MessagePatch{
			State:       state,
			Error:       errLabel,
			SenderState: operatorState,
			SentAt:      sentAt,
		}
		updates = append(updates, domain.StatusUpdate{
			MessageID:   id,
			State:       state,
			SenderState: operatorState,
			Error:       errLabel,
		})
	}

	return patches, updates, nil
}

func messageIDs(messages []*domain.OutboundMessage) []int64 {
	ids := make([]int64, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	return ids
}
