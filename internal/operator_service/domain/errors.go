package domain

import (
	"fmt"
	"sort"
	"strings"
)

// SendingErrorKind distinguishes the ways an exchange with the SMS operator
// can fail. Every kind means the same thing operationally: the batch was not
// confirmed processed and no message state was persisted.
type SendingErrorKind int

const (
	// SendErrEmptyBatch: the caller asked to send or query an empty batch.
	SendErrEmptyBatch SendingErrorKind = iota
	// SendErrTransport: the HTTP request itself failed (network, timeout).
	SendErrTransport
	// SendErrHTTPStatus: the operator answered with a non-200 status.
	SendErrHTTPStatus
	// SendErrMissingIDs: the response omitted messages from this batch.
	SendErrMissingIDs
	// SendErrExtraIDs: the response mentioned messages this batch never sent.
	SendErrExtraIDs
	// SendErrMalformedResponse: the response XML could not be parsed into
	// identifier/status pairs.
	SendErrMalformedResponse
	// SendErrUnknownState: the operator returned a status code outside its
	// documented code space.
	SendErrUnknownState
)

func (k SendingErrorKind) String() string {
	switch k {
	case SendErrEmptyBatch:
		return "empty_batch"
	case SendErrTransport:
		return "transport"
	case SendErrHTTPStatus:
		return "http_status"
	case SendErrMissingIDs:
		return "missing_ids"
	case SendErrExtraIDs:
		return "extra_ids"
	case SendErrMalformedResponse:
		return "malformed_response"
	case SendErrUnknownState:
		return "unknown_state"
	default:
		return "unknown"
	}
}

// SendingError is the single error type surfaced by the operator adapter.
type SendingError struct {
	Kind SendingErrorKind
	// MessageIDs carries the offending identifiers for the missing/extra
	// reconciliation failures.
	MessageIDs []int64
	// HTTPStatus is set for SendErrHTTPStatus.
	HTTPStatus int
	// State is set for SendErrUnknownState.
	State OperatorState
	// Err is the underlying cause, if any.
	Err error
}

func (e *SendingError) Error() string {
	switch e.Kind {
	case SendErrEmptyBatch:
		return "SMS operator: refusing to send an empty message batch"
	case SendErrTransport:
		return fmt.Sprintf("SMS operator returned exception: %v", e.Err)
	case SendErrHTTPStatus:
		return fmt.Sprintf("SMS operator returned invalid response status code: %d", e.HTTPStatus)
	case SendErrMissingIDs:
		return fmt.Sprintf("SMS operator not returned SMS info with uniq: %s", joinIDs(e.MessageIDs))
	case SendErrExtraIDs:
		return fmt.Sprintf("SMS operator returned SMS info about unknown uniq: %s", joinIDs(e.MessageIDs))
	case SendErrMalformedResponse:
		return fmt.Sprintf("SMS operator returned malformed response: %v", e.Err)
	case SendErrUnknownState:
		return fmt.Sprintf("SMS operator returned undocumented status code: %d", int(e.State))
	default:
		return fmt.Sprintf("SMS operator sending error: %v", e.Err)
	}
}

func (e *SendingError) Unwrap() error { return e.Err }

// Is lets callers match on the failure kind with errors.Is against a bare
// &SendingError{Kind: ...} target.
func (e *SendingError) Is(target error) bool {
	t, ok := target.(*SendingError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func joinIDs(ids []int64) string {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
