package order

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession() *OrderSession {
	return &OrderSession{
		OrderID:            "ord-1",
		OrderToken:         "tok-1",
		FromCurrency:       "USDT",
		ToCurrency:         "BTC",
		SendAmount:         decimal.RequireFromString("11"),
		DestinationAddress: "addr1",
		DepositAddress:     "dep1",
		ReceiveAmount:      decimal.RequireFromString("0.0001"),
		OrderType:          TypeFixed,
		CreatedAt:          time.Now(),
		ExpiresAt:          time.Now().Add(30 * time.Minute),
	}
}

// fakeStore is an in-memory CompletedStore that counts writes.
type fakeStore struct {
	mu      sync.Mutex
	puts    int
	records map[string]*CompletedTransaction
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*CompletedTransaction)}
}

func (f *fakeStore) Put(ctx context.Context, tx *CompletedTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.records[tx.OrderID] = tx
	return nil
}

func (f *fakeStore) Get(ctx context.Context, orderID string) (*CompletedTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[orderID], nil
}

func (f *fakeStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}
