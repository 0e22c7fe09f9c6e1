package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipswap/pkg/order"
)

func newTestStore(t *testing.T) *CompletedStore {
	t.Helper()
	store, err := NewCompletedStore(filepath.Join(t.TempDir(), "flipswap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func completedTx(orderID string) *order.CompletedTransaction {
	return &order.CompletedTransaction{
		OrderID:       orderID,
		FromCurrency:  "USDT",
		ToCurrency:    "BTC",
		SendAmount:    decimal.RequireFromString("11"),
		ReceiveAmount: decimal.RequireFromString("0.000275"),
		RawStatus:     order.StatusDone,
		CompletedAt:   time.Now().UTC(),
	}
}

func TestCompletedStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	tx := completedTx("ord-1")
	require.NoError(t, store.Put(ctx, tx))

	got, err = store.Get(ctx, "ord-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ord-1", got.OrderID)
	assert.Equal(t, "USDT", got.FromCurrency)
	assert.True(t, tx.SendAmount.Equal(got.SendAmount))
	assert.Equal(t, order.StatusDone, got.RawStatus)
}

func TestCompletedStoreUpsertKeepsSingleRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := completedTx("ord-1")
	require.NoError(t, store.Put(ctx, first))

	second := completedTx("ord-1")
	second.Simulated = true
	require.NoError(t, store.Put(ctx, second))

	txs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1, "repeated saves for one order must keep one row")
	assert.True(t, txs[0].Simulated, "the latest payload wins")
}

func TestCompletedStoreListsAllOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, completedTx("ord-1")))
	require.NoError(t, store.Put(ctx, completedTx("ord-2")))

	txs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}
