package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipswap/pkg/client"
)

type fakeEmergencyAPI struct {
	mu     sync.Mutex
	err    error
	gotReq *client.EmergencyRequest
}

func (f *fakeEmergencyAPI) SetEmergency(ctx context.Context, req client.EmergencyRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotReq = &req
	return f.err
}

func TestEmergencyExchangeNeverCarriesRefundAddress(t *testing.T) {
	api := &fakeEmergencyAPI{}
	h := NewEmergencyHandler(api, nil, testLogger())

	err := h.Perform(context.Background(), client.EmergencyExchange, "ord-1", "tok-1", "should-be-dropped")

	require.NoError(t, err)
	assert.Empty(t, api.gotReq.Address)
	assert.Equal(t, client.EmergencyExchange, api.gotReq.Choice)
}

func TestEmergencyRefundCarriesRefundAddress(t *testing.T) {
	api := &fakeEmergencyAPI{}
	h := NewEmergencyHandler(api, nil, testLogger())

	err := h.Perform(context.Background(), client.EmergencyRefund, "ord-1", "tok-1", "refund-addr")

	require.NoError(t, err)
	assert.Equal(t, "refund-addr", api.gotReq.Address)
	assert.True(t, h.ActionTaken())
	assert.Equal(t, client.EmergencyRefund, h.LastAction())
}

func TestEmergencyRejectsUnknownChoice(t *testing.T) {
	api := &fakeEmergencyAPI{}
	h := NewEmergencyHandler(api, nil, testLogger())

	err := h.Perform(context.Background(), "PANIC", "ord-1", "tok-1", "")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Nil(t, api.gotReq)
	assert.False(t, h.ActionTaken())
}

func TestEmergencyFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeEmergencyAPI{err: errors.New("engine busy")}
	forced := make(chan struct{}, 1)
	h := NewEmergencyHandler(api, func() { forced <- struct{}{} }, testLogger())

	err := h.Perform(context.Background(), client.EmergencyRefund, "ord-1", "tok-1", "")

	require.Error(t, err)
	assert.False(t, h.ActionTaken())

	select {
	case <-forced:
		t.Fatal("no forced check may be scheduled after a failed action")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmergencySchedulesForcedCheck(t *testing.T) {
	api := &fakeEmergencyAPI{}
	forced := make(chan struct{}, 1)
	h := NewEmergencyHandler(api, func() { forced <- struct{}{} }, testLogger())
	h.recheckDelay = 10 * time.Millisecond

	require.NoError(t, h.Perform(context.Background(), client.EmergencyExchange, "ord-1", "tok-1", ""))

	select {
	case <-forced:
	case <-time.After(time.Second):
		t.Fatal("forced status check never fired")
	}
}

func TestEmergencyResetCancelsPendingRecheck(t *testing.T) {
	api := &fakeEmergencyAPI{}
	forced := make(chan struct{}, 1)
	h := NewEmergencyHandler(api, func() { forced <- struct{}{} }, testLogger())
	h.recheckDelay = 50 * time.Millisecond

	require.NoError(t, h.Perform(context.Background(), client.EmergencyRefund, "ord-1", "tok-1", ""))
	h.Reset()

	assert.False(t, h.ActionTaken())
	assert.Empty(t, h.LastAction())

	select {
	case <-forced:
		t.Fatal("re-check fired after reset")
	case <-time.After(150 * time.Millisecond):
	}
}
