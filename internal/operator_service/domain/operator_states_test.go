package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorStateMapping_Exhaustive(t *testing.T) {
	expected := map[OperatorState]DeliveryState{
		0:  DeliveryStateDelivered,
		1:  DeliveryStateError,
		2:  DeliveryStateError,
		3:  DeliveryStateError,
		4:  DeliveryStateError,
		5:  DeliveryStateError,
		6:  DeliveryStateError,
		7:  DeliveryStateError,
		10: DeliveryStateError,
		11: DeliveryStateSending,
		12: DeliveryStateSending,
		13: DeliveryStateSending,
		14: DeliveryStateSending,
		15: DeliveryStateError,
	}

	require.Len(t, KnownOperatorStates(), len(expected))
	for code, want := range expected {
		got, ok := code.DeliveryState()
		require.True(t, ok, "code %d should be documented", int(code))
		assert.Equal(t, want, got, "code %d", int(code))
	}
}

func TestOperatorStateMapping_UnknownCode(t *testing.T) {
	_, ok := OperatorState(8).DeliveryState()
	assert.False(t, ok)
	_, ok = OperatorState(99).DeliveryState()
	assert.False(t, ok)
}

func TestOperatorStateLabels(t *testing.T) {
	assert.Equal(t, "delivered", OperatorStateDelivered.Label())
	assert.Equal(t, "not delivered", OperatorStateNotDelivered.Label())
	assert.Equal(t, "wrong number format", OperatorStateInvalidPhoneNumber.Label())
	assert.Equal(t, "partly delivered, partly not delivered, partly unknown",
		OperatorStatePartlyDeliveredNotDeliveredUnknown.Label())
	assert.Equal(t, "unknown operator state 42", OperatorState(42).Label())
}

func TestDeliveryStateScan(t *testing.T) {
	var s DeliveryState
	require.NoError(t, s.Scan("delivered"))
	assert.Equal(t, DeliveryStateDelivered, s)

	require.NoError(t, s.Scan([]byte("sending")))
	assert.Equal(t, DeliveryStateSending, s)

	assert.Error(t, s.Scan("queued"))
	assert.Error(t, s.Scan(42))
}
