package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteTTL is how long a priced proposal stays valid once received.
const QuoteTTL = 120 * time.Second

// OrderType selects the engine's pricing mode
type OrderType string

const (
	TypeFixed OrderType = "fixed"
	TypeFloat OrderType = "float"
)

// RawStatus is the settlement-phase code reported by the engine
type RawStatus string

const (
	StatusNew       RawStatus = "NEW"       // Order created, awaiting deposit
	StatusPending   RawStatus = "PENDING"   // Deposit seen, awaiting confirmations
	StatusExchange  RawStatus = "EXCHANGE"  // Conversion in progress
	StatusWithdraw  RawStatus = "WITHDRAW"  // Payout in progress
	StatusDone      RawStatus = "DONE"      // Settled
	StatusExpired   RawStatus = "EXPIRED"   // Deposit window lapsed
	StatusEmergency RawStatus = "EMERGENCY" // Stuck, needs a manual action
)

// ParseRawStatus maps an engine status string onto the known set.
func ParseRawStatus(s string) (RawStatus, error) {
	switch RawStatus(s) {
	case StatusNew, StatusPending, StatusExchange, StatusWithdraw,
		StatusDone, StatusExpired, StatusEmergency:
		return RawStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// DerivedStatus is the simplified client-facing view of a RawStatus
type DerivedStatus string

const (
	DerivedPending   DerivedStatus = "pending"
	DerivedCompleted DerivedStatus = "completed"
	DerivedFailed    DerivedStatus = "failed"
	DerivedExpired   DerivedStatus = "expired"
	DerivedRefunded  DerivedStatus = "refunded"
)

// Derive collapses a raw settlement status into its client-facing form.
func Derive(raw RawStatus) DerivedStatus {
	switch raw {
	case StatusDone:
		return DerivedCompleted
	case StatusExpired:
		return DerivedExpired
	case StatusEmergency:
		return DerivedFailed
	default:
		return DerivedPending
	}
}

// PollInterval returns the polling interval for a raw status. The
// second return is false when active polling must stop.
func PollInterval(raw RawStatus) (time.Duration, bool) {
	switch raw {
	case StatusNew, StatusPending:
		return 10 * time.Second, true
	case StatusExchange, StatusWithdraw:
		return 20 * time.Second, true
	case StatusDone:
		// Settled orders are still watched at a reduced cadence to
		// catch a downstream reversal.
		return 30 * time.Second, true
	default: // EXPIRED, EMERGENCY
		return 0, false
	}
}

// Quote is a priced, time-bounded exchange proposal.
type Quote struct {
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	SendAmount    decimal.Decimal `json:"send_amount"`
	ReceiveAmount decimal.Decimal `json:"receive_amount"`
	Rate          decimal.Decimal `json:"rate"`
	MinAmount     decimal.Decimal `json:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// Expired reports whether the quote has lapsed at the given instant.
func (q *Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// Remaining returns how long the quote stays valid, floored at zero.
func (q *Quote) Remaining(now time.Time) time.Duration {
	d := q.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// FormatRemaining renders a countdown value as seconds with a
// two-digit fractional component, e.g. "119.50".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.2f", d.Seconds())
}

// OrderSession is the immutable record of one submitted order. Status
// lives in StatusSnapshot, owned by the poller.
type OrderSession struct {
	OrderID            string          `json:"order_id"`
	OrderToken         string          `json:"order_token"`
	FromCurrency       string          `json:"from_currency"`
	ToCurrency         string          `json:"to_currency"`
	SendAmount         decimal.Decimal `json:"send_amount"`
	DestinationAddress string          `json:"destination_address"`
	DepositAddress     string          `json:"deposit_address"`
	DepositTag         string          `json:"deposit_tag,omitempty"`
	ReceiveAmount      decimal.Decimal `json:"receive_amount"`
	OrderType          OrderType       `json:"order_type"`
	CreatedAt          time.Time       `json:"created_at"`
	ExpiresAt          time.Time       `json:"expires_at"`
}

// StatusSnapshot is the latest observed settlement state of an order.
type StatusSnapshot struct {
	OrderID    string        `json:"order_id"`
	RawStatus  RawStatus     `json:"raw_status"`
	Derived    DerivedStatus `json:"derived_status"`
	ObservedAt time.Time     `json:"observed_at"`
}

// CompletedTransaction is the durable record of a settled order.
type CompletedTransaction struct {
	OrderID       string          `json:"order_id"`
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	SendAmount    decimal.Decimal `json:"send_amount"`
	ReceiveAmount decimal.Decimal `json:"receive_amount"`
	RawStatus     RawStatus       `json:"raw_status"`
	Simulated     bool            `json:"simulated"`
	CompletedAt   time.Time       `json:"completed_at"`
}
