package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DeliveryState is the internal three-valued delivery state of an outbound
// SMS message.
type DeliveryState string

const (
	// DeliveryStateSending means the message is still in flight at the operator.
	DeliveryStateSending DeliveryState = "sending"
	// DeliveryStateDelivered means the operator confirmed delivery to the handset.
	DeliveryStateDelivered DeliveryState = "delivered"
	// DeliveryStateError means the operator reported a terminal failure.
	DeliveryStateError DeliveryState = "error"
)

// Value implements driver.Valuer for DeliveryState.
func (s DeliveryState) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements sql.Scanner for DeliveryState.
func (s *DeliveryState) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan DeliveryState: value is %T, not string or []byte", value)
		}
		strVal = string(bytesVal)
	}
	switch DeliveryState(strVal) {
	case DeliveryStateSending, DeliveryStateDelivered, DeliveryStateError:
		*s = DeliveryState(strVal)
		return nil
	default:
		return fmt.Errorf("unknown DeliveryState value: %q", strVal)
	}
}

// OutboundMessage is an outgoing SMS tracked by the operator service. The ID
// is assigned before the message ever reaches the operator adapter and is the
// value transmitted (prefixed) on the wire.
type OutboundMessage struct {
	ID              int64          `json:"id"`
	Recipient       string         `json:"recipient"`
	Content         string         `json:"content"`
	State           DeliveryState  `json:"state"`
	Error           *string        `json:"error,omitempty"`
	ExtraSenderData map[string]any `json:"extra_sender_data,omitempty"`
	SentAt          *time.Time     `json:"sent_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// MessagePatch describes the field updates the repository applies to one
// message. An explicit patch avoids mutating shared message structs that a
// caller may still hold after the call returns.
type MessagePatch struct {
	State DeliveryState
	// Error is the human-readable operator error label; nil clears any
	// previously stored error.
	Error *string
	// SenderState is the raw operator status code, stored under the
	// "sender_state" key of the message's extra sender data.
	SenderState OperatorState
	// SentAt, when non-nil, stamps the time the message was handed to the
	// operator. Left nil on delivery-status refreshes.
	SentAt *time.Time
}

// StatusUpdate reports the outcome of one reconciled message back to callers,
// mirroring what was persisted.
type StatusUpdate struct {
	MessageID   int64         `json:"message_id"`
	State       DeliveryState `json:"state"`
	SenderState OperatorState `json:"sender_state"`
	Error       *string       `json:"error,omitempty"`
}
