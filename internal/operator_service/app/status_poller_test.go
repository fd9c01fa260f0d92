package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/atsgate/smsoperator/internal/operator_service/domain"
)

type MockStatusRefresher struct {
	mock.Mock
}

func (m *MockStatusRefresher) RefreshDeliveryStatus(ctx context.Context, messages []*domain.OutboundMessage) ([]domain.StatusUpdate, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusUpdate), args.Error(1)
}

func TestStatusPoller_PollOnce_RefreshesInFlight(t *testing.T) {
	repo := new(MockMessageRepository)
	refresher := new(MockStatusRefresher)

	messages := []*domain.OutboundMessage{
		{ID: 101, State: domain.DeliveryStateSending},
		{ID: 102, State: domain.DeliveryStateSending},
	}
	repo.On("ListInFlight", mock.Anything, mock.AnythingOfType("time.Time"), 50).Return(messages, nil)
	refresher.On("RefreshDeliveryStatus", mock.Anything, messages).Return([]domain.StatusUpdate{
		{MessageID: 101, State: domain.DeliveryStateDelivered, SenderState: domain.OperatorStateDelivered},
		{MessageID: 102, State: domain.DeliveryStateSending, SenderState: domain.OperatorStateUnknown},
	}, nil)

	poller := NewStatusPoller(repo, refresher, testLogger(), time.Minute, 5*time.Minute, 50)
	require.NoError(t, poller.PollOnce(context.Background()))

	repo.AssertExpectations(t)
	refresher.AssertExpectations(t)

	// The poll-set cutoff must lie MinAge in the past.
	cutoff := repo.Calls[0].Arguments.Get(1).(time.Time)
	assert.WithinDuration(t, time.Now().UTC().Add(-5*time.Minute), cutoff, 5*time.Second)
}

func TestStatusPoller_PollOnce_NothingInFlight(t *testing.T) {
	repo := new(MockMessageRepository)
	refresher := new(MockStatusRefresher)
	repo.On("ListInFlight", mock.Anything, mock.AnythingOfType("time.Time"), 50).Return(
		[]*domain.OutboundMessage{}, nil)

	poller := NewStatusPoller(repo, refresher, testLogger(), time.Minute, 5*time.Minute, 50)
	require.NoError(t, poller.PollOnce(context.Background()))
	refresher.AssertNotCalled(t, "RefreshDeliveryStatus", mock.Anything, mock.Anything)
}

func TestStatusPoller_PollOnce_RefreshFailure(t *testing.T) {
	repo := new(MockMessageRepository)
	refresher := new(MockStatusRefresher)

	messages := []*domain.OutboundMessage{{ID: 101, State: domain.DeliveryStateSending}}
	repo.On("ListInFlight", mock.Anything, mock.AnythingOfType("time.Time"), 50).Return(messages, nil)
	refresher.On("RefreshDeliveryStatus", mock.Anything, messages).Return(nil,
		&domain.SendingError{Kind: domain.SendErrHTTPStatus, HTTPStatus: 502})

	poller := NewStatusPoller(repo, refresher, testLogger(), time.Minute, 5*time.Minute, 50)
	err := poller.PollOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, &domain.SendingError{Kind: domain.SendErrHTTPStatus}))
}

func TestStatusPoller_Run_StopsOnCancel(t *testing.T) {
	repo := new(MockMessageRepository)
	refresher := new(MockStatusRefresher)
	repo.On("ListInFlight", mock.Anything, mock.AnythingOfType("time.Time"), 10).Return(
		[]*domain.OutboundMessage{}, nil).Maybe()

	poller := NewStatusPoller(repo, refresher, testLogger(), 10*time.Millisecond, time.Minute, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}
