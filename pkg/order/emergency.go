package order

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"flipswap/pkg/client"
)

// DefaultRecheckDelay is how long after a successful emergency action
// the follow-up forced status check is scheduled.
const DefaultRecheckDelay = time.Second

// EmergencyAPI is the slice of the engine client the handler needs.
type EmergencyAPI interface {
	SetEmergency(ctx context.Context, req client.EmergencyRequest) error
}

// EmergencyHandler issues manual exchange/refund actions for stuck
// orders and forces a follow-up status check shortly afterwards.
type EmergencyHandler struct {
	api          EmergencyAPI
	forceCheck   func()
	recheckDelay time.Duration
	log          *slog.Logger

	mu          sync.Mutex
	actionTaken bool
	lastChoice  client.EmergencyChoice
	timer       *time.Timer
}

// NewEmergencyHandler creates an emergency action handler. forceCheck
// is invoked once, recheckDelay after a successful action.
func NewEmergencyHandler(api EmergencyAPI, forceCheck func(), log *slog.Logger) *EmergencyHandler {
	return &EmergencyHandler{
		api:          api,
		forceCheck:   forceCheck,
		recheckDelay: DefaultRecheckDelay,
		log:          log,
	}
}

// Perform submits the chosen action. REFUND may carry a refund
// address; EXCHANGE never does. On failure the order state is left
// untouched and the action-specific error is returned.
func (h *EmergencyHandler) Perform(ctx context.Context, choice client.EmergencyChoice, orderID, token, refundAddress string) error {
	switch choice {
	case client.EmergencyExchange:
		refundAddress = ""
	case client.EmergencyRefund:
	default:
		return &ValidationError{Field: "choice", Reason: fmt.Sprintf("unknown emergency action %q", choice)}
	}

	err := h.api.SetEmergency(ctx, client.EmergencyRequest{
		ID:      orderID,
		Token:   token,
		Choice:  choice,
		Address: refundAddress,
	})
	if err != nil {
		return fmt.Errorf("emergency %s failed: %w", choice, err)
	}

	h.log.Info("emergency action accepted", "order_id", orderID, "choice", choice)

	h.mu.Lock()
	h.actionTaken = true
	h.lastChoice = choice
	if h.timer != nil {
		h.timer.Stop()
	}
	if h.forceCheck != nil {
		h.timer = time.AfterFunc(h.recheckDelay, h.forceCheck)
	}
	h.mu.Unlock()

	return nil
}

// ActionTaken reports whether a manual action has been issued for the
// current order. Collaborators use it to adjust available actions.
func (h *EmergencyHandler) ActionTaken() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.actionTaken
}

// LastAction returns the most recent action issued for the current
// order, or the empty choice when none was taken.
func (h *EmergencyHandler) LastAction() client.EmergencyChoice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastChoice
}

// Reset clears the action flag and cancels any pending re-check when
// a new order is loaded or the view is torn down.
func (h *EmergencyHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actionTaken = false
	h.lastChoice = ""
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}
