package order

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flipswap/pkg/client"
)

// schedulerResolution is the granularity at which the poll loop
// re-evaluates the per-status debounce window.
const schedulerResolution = time.Second

// StatusAPI is the slice of the engine client the poller needs.
type StatusAPI interface {
	CheckOrderStatus(ctx context.Context, orderID, token string) (*client.OrderData, error)
}

// PollerHooks are invoked by the poller as it observes transitions.
// All hooks are optional and called outside the poller's lock.
type PollerHooks struct {
	// OnUpdate fires after every accepted snapshot update.
	OnUpdate func(StatusSnapshot)
	// OnDone fires when DONE is observed; the tracker persists the
	// completed record here.
	OnDone func(StatusSnapshot)
	// OnExpired fires when EXPIRED is observed; the tracker runs
	// reconciliation here.
	OnExpired func(StatusSnapshot)
}

// Poller repeatedly fetches order status on an adaptive schedule:
// NEW/PENDING every 10s, EXCHANGE/WITHDRAW every 20s, DONE every 30s,
// EXPIRED/EMERGENCY stop. Extra triggers inside the window are
// debounced; a forced check always goes out immediately.
type Poller struct {
	api   StatusAPI
	hooks PollerHooks
	now   func() time.Time
	log   *slog.Logger

	mu          sync.Mutex
	session     *OrderSession
	snapshot    StatusSnapshot
	lastAttempt time.Time
	lastErr     error
	stopped     bool

	done     chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a poller for one order. initial is the raw status
// reported at order creation.
func NewPoller(api StatusAPI, session *OrderSession, initial RawStatus, hooks PollerHooks, log *slog.Logger) *Poller {
	return &Poller{
		api:     api,
		hooks:   hooks,
		now:     time.Now,
		log:     log,
		session: session,
		snapshot: StatusSnapshot{
			OrderID:    session.OrderID,
			RawStatus:  initial,
			Derived:    Derive(initial),
			ObservedAt: time.Now(),
		},
		done: make(chan struct{}),
	}
}

// Run drives the schedule until the poller is stopped, the context is
// cancelled, or a terminal status ends active polling.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(schedulerResolution)
	defer ticker.Stop()

	// First check goes out immediately
	p.Tick(ctx, true)

	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			p.Stop()
			return
		case <-ticker.C:
			p.Tick(ctx, false)
		}
	}
}

// Stop cancels future scheduled ticks. Safe to call multiple times.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.stopOnce.Do(func() { close(p.done) })
}

// ForceCheck bypasses the debounce window and issues a status request
// immediately, resetting the attempt clock.
func (p *Poller) ForceCheck(ctx context.Context) {
	p.Tick(ctx, true)
}

// Snapshot returns the latest observed status.
func (p *Poller) Snapshot() StatusSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// LastError returns the most recent transient polling failure, or nil
// after a successful check.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Tick runs one step of the schedule. When forced is false the tick
// is skipped if the per-status interval has not elapsed since the
// last attempt; transient failures keep the previous snapshot and
// wait for the regular schedule rather than retrying immediately.
func (p *Poller) Tick(ctx context.Context, forced bool) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}

	interval, active := PollInterval(p.snapshot.RawStatus)
	if !active {
		p.mu.Unlock()
		p.Stop()
		return
	}

	now := p.now()
	if !forced && now.Sub(p.lastAttempt) < interval {
		p.mu.Unlock()
		return
	}

	// Record the attempt before the response arrives so overlapping
	// triggers inside the window are debounced.
	p.lastAttempt = now
	orderID := p.session.OrderID
	token := p.session.OrderToken
	p.mu.Unlock()

	data, err := p.api.CheckOrderStatus(ctx, orderID, token)
	if err != nil {
		p.recordTransient(orderID, err)
		return
	}

	raw, err := ParseRawStatus(data.Status)
	if err != nil {
		p.recordTransient(orderID, err)
		return
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	if data.ID != "" && data.ID != p.session.OrderID {
		// Stale response for an order we no longer track
		p.log.Warn("discarding status response for wrong order",
			"tracked", p.session.OrderID, "got", data.ID)
		p.mu.Unlock()
		return
	}

	snapshot := StatusSnapshot{
		OrderID:    p.session.OrderID,
		RawStatus:  raw,
		Derived:    Derive(raw),
		ObservedAt: p.now(),
	}
	p.snapshot = snapshot
	p.lastErr = nil
	_, stillActive := PollInterval(raw)
	p.mu.Unlock()

	if p.hooks.OnUpdate != nil {
		p.hooks.OnUpdate(snapshot)
	}
	if raw == StatusDone && p.hooks.OnDone != nil {
		p.hooks.OnDone(snapshot)
	}
	if raw == StatusExpired && p.hooks.OnExpired != nil {
		p.hooks.OnExpired(snapshot)
	}

	if !stillActive {
		p.Stop()
	}
}

// ApplySnapshot overrides the poller's view, used when reconciliation
// resolves an expired read to completed.
func (p *Poller) ApplySnapshot(snapshot StatusSnapshot) {
	p.mu.Lock()
	if snapshot.OrderID != p.session.OrderID {
		p.mu.Unlock()
		return
	}
	p.snapshot = snapshot
	p.mu.Unlock()

	if p.hooks.OnUpdate != nil {
		p.hooks.OnUpdate(snapshot)
	}
}

func (p *Poller) recordTransient(orderID string, err error) {
	p.mu.Lock()
	p.lastErr = &TransportError{Err: err}
	p.mu.Unlock()
	// Keep the previous snapshot; the next scheduled tick retries
	p.log.Debug("status check failed", "order_id", orderID, "error", err)
}
