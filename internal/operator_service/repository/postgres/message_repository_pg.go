package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atsgate/smsoperator/internal/operator_service/domain"
)

// Assumes table outbox_messages:
//   id BIGINT PRIMARY KEY, recipient TEXT, content TEXT, state TEXT,
//   error TEXT NULL, extra_sender_data JSONB NULL, sent_at TIMESTAMPTZ NULL,
//   created_at TIMESTAMPTZ, updated_at TIMESTAMPTZ
type pgMessageRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPgMessageRepository creates the PostgreSQL implementation of
// domain.MessageRepository.
func NewPgMessageRepository(db *pgxpool.Pool, logger *slog.Logger) domain.MessageRepository {
	return &pgMessageRepository{
		db:     db,
		logger: logger.With("component", "message_repository"),
	}
}

const selectColumns = `
	SELECT id, recipient, content, state, error, extra_sender_data, sent_at, created_at, updated_at
	FROM outbox_messages
`

func (r *pgMessageRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.OutboundMessage, error) {
	rows, err := r.db.Query(ctx, selectColumns+` WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *pgMessageRepository) ListInFlight(ctx context.Context, sentBefore time.Time, limit int) ([]*domain.OutboundMessage, error) {
	rows, err := r.db.Query(ctx,
		selectColumns+` WHERE state = $1 AND sent_at IS NOT NULL AND sent_at < $2 ORDER BY sent_at LIMIT $3`,
		domain.DeliveryStateSending, sentBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query in-flight messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]*domain.OutboundMessage, error) {
	var messages []*domain.OutboundMessage
	for rows.Next() {
		var msg domain.OutboundMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.Recipient,
			&msg.Content,
			&msg.State,
			&msg.Error,
			&msg.ExtraSenderData,
			&msg.SentAt,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outbox messages: %w", err)
	}
	return messages, nil
}

// The raw operator code goes into extra_sender_data under sender_state, and
// sent_at is only touched when the patch carries a timestamp.
const patchQuery = `
	UPDATE outbox_messages
	SET
		state = $2,
		error = $3,
		extra_sender_data = jsonb_set(COALESCE(extra_sender_data, '{}'::jsonb), '{sender_state}', to_jsonb($4::int), true),
		sent_at = COALESCE($5, sent_at),
		updated_at = $6
	WHERE id = $1
`

func (r *pgMessageRepository) ChangeAndSave(ctx context.Context, id int64, patch domain.MessagePatch) error {
	commandTag, err := r.db.Exec(ctx, patchQuery,
		id, patch.State, patch.Error, int(patch.SenderState), patch.SentAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update outbox message %d: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return fmt.Errorf("outbox message %d: %w", id, domain.ErrMessageNotFound)
	}
	return nil
}

// ChangeAndSaveMany applies every patch inside one transaction so a
// reconciled batch either lands completely or not at all.
func (r *pgMessageRepository) ChangeAndSaveMany(ctx context.Context, patches map[int64]domain.MessagePatch) error {
	if len(patches) == 0 {
		return nil
	}

	now := time.Now().UTC()
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for id, patch := range patches {
			commandTag, err := tx.Exec(ctx, patchQuery,
				id, patch.State, patch.Error, int(patch.SenderState), patch.SentAt, now)
			if err != nil {
				return fmt.Errorf("failed to update outbox message %d: %w", id, err)
			}
			if commandTag.RowsAffected() == 0 {
				return fmt.Errorf("outbox message %d: %w", id, domain.ErrMessageNotFound)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			r.logger.WarnContext(ctx, "Batch update rolled back, message missing", "error", err)
		} else {
			r.logger.ErrorContext(ctx, "Batch update failed", "error", err, "count", len(patches))
		}
		return err
	}

	r.logger.DebugContext(ctx, "Batch update persisted", "count", len(patches))
	return nil
}
