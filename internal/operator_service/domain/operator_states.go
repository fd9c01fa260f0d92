package domain

import "fmt"

// OperatorState is a raw delivery status code returned by the SMS operator's
// XML API. The code space is closed; anything outside the table below is a
// contract violation.
type OperatorState int

const (
	OperatorStateDelivered            OperatorState = 0
	OperatorStateNotDelivered         OperatorState = 1
	OperatorStatePhoneNumberNotExists OperatorState = 2

	// SMS not moved to the GSM operator.
	OperatorStateTimeouted          OperatorState = 3
	OperatorStateInvalidPhoneNumber OperatorState = 4
	OperatorStateAnotherError       OperatorState = 5
	OperatorStateEventError         OperatorState = 6
	OperatorStateTextTooLong        OperatorState = 7

	// Multipart SMS outcomes.
	OperatorStatePartlyDelivered                    OperatorState = 10
	OperatorStateUnknown                            OperatorState = 11
	OperatorStatePartlyDeliveredPartlyUnknown       OperatorState = 12
	OperatorStatePartlyNotDeliveredPartlyUnknown    OperatorState = 13
	OperatorStatePartlyDeliveredNotDeliveredUnknown OperatorState = 14
	OperatorStateNotFound                           OperatorState = 15
)

// operatorStateEntry pairs an operator code's human-readable label with the
// internal delivery state it maps onto.
type operatorStateEntry struct {
	Label string
	State DeliveryState
}

var operatorStates = map[OperatorState]operatorStateEntry{
	OperatorStateDelivered:            {"delivered", DeliveryStateDelivered},
	OperatorStateNotDelivered:         {"not delivered", DeliveryStateError},
	OperatorStatePhoneNumberNotExists: {"number not exists", DeliveryStateError},

	OperatorStateTimeouted:          {"timeouted", DeliveryStateError},
	OperatorStateInvalidPhoneNumber: {"wrong number format", DeliveryStateError},
	OperatorStateAnotherError:       {"another error", DeliveryStateError},
	OperatorStateEventError:         {"event error", DeliveryStateError},
	OperatorStateTextTooLong:        {"SMS text too long", DeliveryStateError},

	OperatorStatePartlyDelivered:                    {"partly delivered", DeliveryStateError},
	OperatorStateUnknown:                            {"unknown", DeliveryStateSending},
	OperatorStatePartlyDeliveredPartlyUnknown:       {"partly delivered, partly unknown", DeliveryStateSending},
	OperatorStatePartlyNotDeliveredPartlyUnknown:    {"partly not delivered, partly unknown", DeliveryStateSending},
	OperatorStatePartlyDeliveredNotDeliveredUnknown: {"partly delivered, partly not delivered, partly unknown", DeliveryStateSending},
	OperatorStateNotFound:                           {"not found", DeliveryStateError},
}

// Label returns the human-readable label for the code, or a placeholder for
// codes outside the documented space.
func (s OperatorState) Label() string {
	if entry, ok := operatorStates[s]; ok {
		return entry.Label
	}
	return fmt.Sprintf("unknown operator state %d", int(s))
}

// DeliveryState maps the operator code onto the internal delivery state. The
// second return value is false for codes outside the documented space; the
// caller must treat that as a protocol violation rather than defaulting.
func (s OperatorState) DeliveryState() (DeliveryState, bool) {
	entry, ok := operatorStates[s]
	return entry.State, ok
}

// KnownOperatorStates lists every documented operator code, for validation
// and exhaustiveness checks.
func KnownOperatorStates() []OperatorState {
	codes := make([]OperatorState, 0, len(operatorStates))
	for code := range operatorStates {
		codes = append(codes, code)
	}
	return codes
}
