package order

import (
	"context"
	"log/slog"
	"sync"

	"flipswap/pkg/client"
)

// API is the full settlement-engine surface the tracker depends on.
type API interface {
	PriceAPI
	OrderAPI
	StatusAPI
	EmergencyAPI
}

// CompletedStore is the durable store for completed transactions.
type CompletedStore interface {
	CompletedPutter
	CompletedGetter
}

// TrackerHooks let a caller observe the order view's state changes.
// All hooks are optional.
type TrackerHooks struct {
	// QuoteTick receives the countdown display once per second, and
	// "" when the quote lapses.
	QuoteTick func(string)
	// StatusUpdate fires on every accepted status change.
	StatusUpdate func(StatusSnapshot)
	// Completed fires exactly once when the completed record is
	// persisted, live, simulated or reconciled alike.
	Completed func()
}

// Tracker coordinates the lifecycle of the single open order: quote,
// validation, creation, polling, completion recording, expiry
// reconciliation and emergency escalation. It owns every timer those
// pieces run and cancels them all on teardown or supersession.
type Tracker struct {
	api   API
	store CompletedStore
	log   *slog.Logger
	hooks TrackerHooks

	calc       *Calculator
	creator    *Creator
	recorder   *Recorder
	reconciler *Reconciler
	emergency  *EmergencyHandler
	sessions   *SessionStore

	mu         sync.Mutex
	session    *OrderSession
	poller     *Poller
	cancelPoll context.CancelFunc
}

// NewTracker wires the order-lifecycle components together.
func NewTracker(api API, store CompletedStore, sessions *SessionStore, hooks TrackerHooks, log *slog.Logger) *Tracker {
	t := &Tracker{
		api:      api,
		store:    store,
		log:      log,
		hooks:    hooks,
		sessions: sessions,
	}
	t.calc = NewCalculator(api, hooks.QuoteTick)
	t.creator = NewCreator(api, t.calc, sessions, log)
	t.recorder = NewRecorder(store, hooks.Completed, log)
	t.reconciler = NewReconciler(store, log)
	t.emergency = NewEmergencyHandler(api, func() {
		t.ForceStatusCheck(context.Background())
	}, log)
	return t
}

// CalculateQuote fetches a fresh quote and restarts the countdown.
func (t *Tracker) CalculateQuote(ctx context.Context, from, to, amount string, orderType OrderType) (*Quote, error) {
	return t.calc.Calculate(ctx, from, to, amount, orderType)
}

// ValidateAmount checks an amount against the active quote's bounds.
func (t *Tracker) ValidateAmount(amount string) AmountCheck {
	return ValidateAmount(amount, t.calc.Quote())
}

// QuoteBusy reports whether a quote calculation is in flight.
func (t *Tracker) QuoteBusy() bool {
	return t.calc.Busy()
}

// CreateOrder submits the order and, on success, supersedes any prior
// order: the old poll loop is cancelled, the per-order flags reset,
// and polling starts for the new session.
func (t *Tracker) CreateOrder(ctx context.Context, params CreateParams) (*OrderSession, error) {
	session, err := t.creator.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	t.adopt(session, StatusNew)
	return session, nil
}

// Resume reloads a persisted session and restarts polling for it. It
// returns (nil, nil) when no session is stored.
func (t *Tracker) Resume(ctx context.Context) (*OrderSession, error) {
	session, err := t.sessions.Get()
	if err != nil || session == nil {
		return nil, err
	}
	t.adopt(session, StatusNew)
	return session, nil
}

// adopt replaces the tracked order and restarts the poll loop.
func (t *Tracker) adopt(session *OrderSession, initial RawStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopPollingLocked()
	t.recorder.Reset()
	t.emergency.Reset()

	t.session = session
	poller := NewPoller(t.api, session, initial, PollerHooks{
		OnUpdate:  t.hooks.StatusUpdate,
		OnDone:    func(s StatusSnapshot) { _ = t.recorder.Save(context.Background(), session, s, false) },
		OnExpired: func(s StatusSnapshot) { t.reconcileExpired(session, s) },
	}, t.log)
	t.poller = poller

	ctx, cancel := context.WithCancel(context.Background())
	t.cancelPoll = cancel
	go poller.Run(ctx)
}

// reconcileExpired resolves a live expired read against the durable
// store, overriding the snapshot when a completed record exists.
func (t *Tracker) reconcileExpired(session *OrderSession, snapshot StatusSnapshot) {
	resolved := t.reconciler.Reconcile(context.Background(), snapshot)
	if resolved.Derived != DerivedCompleted {
		return
	}

	t.mu.Lock()
	poller := t.poller
	t.mu.Unlock()
	if poller != nil {
		poller.ApplySnapshot(resolved)
	}
	_ = t.recorder.Save(context.Background(), session, resolved, false)
}

// ForceStatusCheck issues an immediate status request, bypassing the
// debounce window.
func (t *Tracker) ForceStatusCheck(ctx context.Context) {
	t.mu.Lock()
	poller := t.poller
	t.mu.Unlock()
	if poller != nil {
		poller.ForceCheck(ctx)
	}
}

// Snapshot returns the latest status of the tracked order. When a
// manual refund was issued, an EMERGENCY read is reported as refunded
// rather than failed; the raw enum has no separate refund code.
func (t *Tracker) Snapshot() (StatusSnapshot, bool) {
	t.mu.Lock()
	poller := t.poller
	t.mu.Unlock()
	if poller == nil {
		return StatusSnapshot{}, false
	}

	snapshot := poller.Snapshot()
	if snapshot.RawStatus == StatusEmergency && t.emergency.LastAction() == client.EmergencyRefund {
		snapshot.Derived = DerivedRefunded
	}
	return snapshot, true
}

// PollError returns the latest transient polling failure, or nil.
func (t *Tracker) PollError() error {
	t.mu.Lock()
	poller := t.poller
	t.mu.Unlock()
	if poller == nil {
		return nil
	}
	return poller.LastError()
}

// Session returns the tracked order session, or nil.
func (t *Tracker) Session() *OrderSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// EmergencyActionTaken reports whether a manual action was issued.
func (t *Tracker) EmergencyActionTaken() bool {
	return t.emergency.ActionTaken()
}

// PerformEmergency issues a manual exchange or refund for the tracked
// order and schedules a forced status check to observe the result.
func (t *Tracker) PerformEmergency(ctx context.Context, choice client.EmergencyChoice, refundAddress string) error {
	t.mu.Lock()
	session := t.session
	t.mu.Unlock()
	if session == nil {
		return &ValidationError{Field: "order", Reason: "no active order"}
	}
	return t.emergency.Perform(ctx, choice, session.OrderID, session.OrderToken, refundAddress)
}

// SimulateCompletion records a manual completion override for the
// tracked order, going through the same at-most-once guard as a live
// DONE observation.
func (t *Tracker) SimulateCompletion(ctx context.Context) error {
	t.mu.Lock()
	session := t.session
	poller := t.poller
	t.mu.Unlock()
	if session == nil {
		return &ValidationError{Field: "order", Reason: "no active order"}
	}

	snapshot := StatusSnapshot{
		OrderID:    session.OrderID,
		RawStatus:  StatusDone,
		Derived:    DerivedCompleted,
		ObservedAt: t.reconciler.now(),
	}
	if poller != nil {
		poller.ApplySnapshot(snapshot)
	}
	return t.recorder.Save(ctx, session, snapshot, true)
}

// Teardown stops every timer owned by the order view: the quote
// countdown, the poll loop, and any pending emergency re-check.
func (t *Tracker) Teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopPollingLocked()
	t.emergency.Reset()
	t.calc.StopCountdown()
}

func (t *Tracker) stopPollingLocked() {
	if t.poller != nil {
		t.poller.Stop()
		t.poller = nil
	}
	if t.cancelPoll != nil {
		t.cancelPoll()
		t.cancelPoll = nil
	}
}
