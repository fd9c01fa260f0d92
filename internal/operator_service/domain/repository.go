package domain

import (
	"context"
	"errors"
	"time"
)

// ErrMessageNotFound is returned when a requested message does not exist.
var ErrMessageNotFound = errors.New("outbound message not found")

// MessageRepository is the persistence collaborator of the operator adapter.
// The adapter never writes message fields directly; it hands the repository a
// patch per message and the repository owns how that patch is applied.
type MessageRepository interface {
	// GetByIDs loads the messages with the given identifiers. Missing
	// identifiers are not an error; callers compare lengths when they care.
	GetByIDs(ctx context.Context, ids []int64) ([]*OutboundMessage, error)

	// ChangeAndSave applies a patch to a single message.
	ChangeAndSave(ctx context.Context, id int64, patch MessagePatch) error

	// ChangeAndSaveMany applies all patches within one transaction, so a
	// reconciled batch is persisted all-or-nothing.
	ChangeAndSaveMany(ctx context.Context, patches map[int64]MessagePatch) error

	// ListInFlight returns up to limit messages still in the sending state
	// whose sent_at is older than the given time, oldest first. The
	// delivery-status poller feeds on this.
	ListInFlight(ctx context.Context, sentBefore time.Time, limit int) ([]*OutboundMessage, error)
}
