package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendingError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *SendingError
		want string
	}{
		{
			name: "missing ids are sorted and named",
			err:  &SendingError{Kind: SendErrMissingIDs, MessageIDs: []int64{3, 1}},
			want: "SMS operator not returned SMS info with uniq: 1, 3",
		},
		{
			name: "extra ids are named",
			err:  &SendingError{Kind: SendErrExtraIDs, MessageIDs: []int64{4}},
			want: "SMS operator returned SMS info about unknown uniq: 4",
		},
		{
			name: "http status",
			err:  &SendingError{Kind: SendErrHTTPStatus, HTTPStatus: 503},
			want: "SMS operator returned invalid response status code: 503",
		},
		{
			name: "unknown state",
			err:  &SendingError{Kind: SendErrUnknownState, State: OperatorState(8)},
			want: "SMS operator returned undocumented status code: 8",
		},
		{
			name: "empty batch",
			err:  &SendingError{Kind: SendErrEmptyBatch},
			want: "SMS operator: refusing to send an empty message batch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestSendingError_KindMatching(t *testing.T) {
	err := fmt.Errorf("processing batch: %w", &SendingError{Kind: SendErrMissingIDs, MessageIDs: []int64{7}})

	assert.True(t, errors.Is(err, &SendingError{Kind: SendErrMissingIDs}))
	assert.False(t, errors.Is(err, &SendingError{Kind: SendErrExtraIDs}))

	var sendErr *SendingError
	assert.True(t, errors.As(err, &sendErr))
	assert.Equal(t, []int64{7}, sendErr.MessageIDs)
}

func TestSendingError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &SendingError{Kind: SendErrTransport, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
