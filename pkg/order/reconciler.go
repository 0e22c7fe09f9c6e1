package order

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultReconcileTimeout bounds how long an expired-order check may
// hold up the caller before the expired state is forced.
const DefaultReconcileTimeout = 3 * time.Second

// CompletedGetter reads completed transactions from the durable store.
type CompletedGetter interface {
	Get(ctx context.Context, orderID string) (*CompletedTransaction, error)
}

// Reconciler resolves a live "expired" read against the durable
// store. The engine reporting expiry does not necessarily mean
// failure: a completion can race with the poller's last observation,
// in which case the durable record wins.
type Reconciler struct {
	store   CompletedGetter
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger

	mu       sync.Mutex
	checked  map[string]bool
	inFlight bool
}

// NewReconciler creates an expired-order reconciler.
func NewReconciler(store CompletedGetter, log *slog.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		timeout: DefaultReconcileTimeout,
		now:     time.Now,
		log:     log,
		checked: make(map[string]bool),
	}
}

// Reconcile checks whether an order the engine reports as expired was
// in fact completed. It runs at most once per order id per reconciler
// lifetime and never concurrently; every other call returns the
// snapshot unchanged. The store lookup is bounded by the configured
// timeout, after which the expired state stands.
func (r *Reconciler) Reconcile(ctx context.Context, snapshot StatusSnapshot) StatusSnapshot {
	if snapshot.Derived != DerivedExpired {
		return snapshot
	}

	r.mu.Lock()
	if r.checked[snapshot.OrderID] || r.inFlight {
		r.mu.Unlock()
		return snapshot
	}
	r.checked[snapshot.OrderID] = true
	r.inFlight = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight = false
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.store.Get(ctx, snapshot.OrderID)
	if err != nil {
		// Timeout or store failure: force the expired state to bound latency
		r.log.Warn("expired-order reconciliation failed", "order_id", snapshot.OrderID, "error", err)
		return snapshot
	}
	if tx == nil {
		return snapshot
	}

	r.log.Info("expired order reconciled to completed", "order_id", snapshot.OrderID)
	return StatusSnapshot{
		OrderID:    snapshot.OrderID,
		RawStatus:  StatusDone,
		Derived:    DerivedCompleted,
		ObservedAt: r.now(),
	}
}
