package order

import (
	"context"
	"log/slog"
	"sync"
)

// CompletedPutter writes completed transactions to the durable store.
type CompletedPutter interface {
	Put(ctx context.Context, tx *CompletedTransaction) error
}

// Recorder persists the terminal "completed" record at most once per
// loaded order. Live polling, the simulated override and
// reconciliation all funnel through Save; only the first of them
// writes.
type Recorder struct {
	store       CompletedPutter
	log         *slog.Logger
	onCompleted func()

	mu    sync.Mutex
	saved bool
}

// NewRecorder creates a completion recorder. onCompleted fires exactly
// once, after the first successful save.
func NewRecorder(store CompletedPutter, onCompleted func(), log *slog.Logger) *Recorder {
	return &Recorder{
		store:       store,
		log:         log,
		onCompleted: onCompleted,
	}
}

// Save writes the completed record unless one was already written for
// the current order. A failed write leaves the guard clear so the next
// terminal observation can retry; settlement itself already succeeded
// upstream, so the failure is logged rather than surfaced.
func (r *Recorder) Save(ctx context.Context, session *OrderSession, snapshot StatusSnapshot, simulated bool) error {
	r.mu.Lock()
	if r.saved {
		r.mu.Unlock()
		return nil
	}

	tx := &CompletedTransaction{
		OrderID:       session.OrderID,
		FromCurrency:  session.FromCurrency,
		ToCurrency:    session.ToCurrency,
		SendAmount:    session.SendAmount,
		ReceiveAmount: session.ReceiveAmount,
		RawStatus:     snapshot.RawStatus,
		Simulated:     simulated,
		CompletedAt:   snapshot.ObservedAt,
	}

	if err := r.store.Put(ctx, tx); err != nil {
		r.mu.Unlock()
		r.log.Error("completed transaction save failed, will retry on next terminal observation",
			"order_id", session.OrderID, "error", err)
		return &StorageError{Err: err}
	}

	r.saved = true
	r.mu.Unlock()

	r.log.Info("completed transaction recorded", "order_id", session.OrderID, "simulated", simulated)
	if r.onCompleted != nil {
		r.onCompleted()
	}
	return nil
}

// Saved reports whether the current order's record has been written.
func (r *Recorder) Saved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}

// Reset clears the guard when a new order is loaded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = false
}
