package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"flipswap/pkg/client"
)

// OrderAPI is the slice of the engine client the creator needs.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req client.CreateOrderRequest) (*client.OrderData, error)
}

// CreateParams carries the user's submission.
type CreateParams struct {
	FromCurrency       string
	ToCurrency         string
	Amount             string
	DestinationAddress string
	OrderType          OrderType
}

// Creator validates a submission against the active quote and creates
// the order with the engine.
type Creator struct {
	api      OrderAPI
	calc     *Calculator
	sessions *SessionStore
	now      func() time.Time
	log      *slog.Logger
}

// NewCreator creates an order creator.
func NewCreator(api OrderAPI, calc *Calculator, sessions *SessionStore, log *slog.Logger) *Creator {
	return &Creator{
		api:      api,
		calc:     calc,
		sessions: sessions,
		now:      time.Now,
		log:      log,
	}
}

// Create checks preconditions in order, submits the order and
// persists the resulting session, overwriting any prior one. A lapsed
// quote aborts the attempt with ErrQuoteExpired after kicking off a
// fresh calculation; a business decline is returned verbatim as
// *OrderError.
func (c *Creator) Create(ctx context.Context, params CreateParams) (*OrderSession, error) {
	if params.FromCurrency == "" || params.ToCurrency == "" {
		return nil, &ValidationError{Field: "currency", Reason: "both currencies must be selected"}
	}

	amount, err := decimal.NewFromString(params.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be a number greater than 0"}
	}

	if params.DestinationAddress == "" {
		return nil, &ValidationError{Field: "destination address", Reason: "is required"}
	}

	quote := c.calc.Quote()
	switch check := ValidateAmount(params.Amount, quote); check {
	case AmountOK:
	case AmountSkipped:
		return nil, &ValidationError{Field: "amount", Reason: "no active quote to validate against"}
	default:
		return nil, &ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("%s (allowed range %s - %s)", check, quote.MinAmount, quote.MaxAmount),
		}
	}

	if quote.Expired(c.now()) {
		// Never submit against a stale rate; refresh and abort.
		go func() {
			_, err := c.calc.Calculate(context.Background(),
				params.FromCurrency, params.ToCurrency, params.Amount, params.OrderType)
			if err != nil {
				c.log.Warn("quote refresh after expiry failed", "error", err)
			}
		}()
		return nil, ErrQuoteExpired
	}

	data, err := c.api.CreateOrder(ctx, client.CreateOrderRequest{
		FromCcy:   params.FromCurrency,
		ToCcy:     params.ToCurrency,
		Amount:    params.Amount,
		ToAddress: params.DestinationAddress,
		Type:      string(params.OrderType),
		Rate:      quote.Rate.String(),
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return nil, &OrderError{Code: apiErr.Code, Msg: apiErr.Msg, DebugInfo: apiErr.DebugInfo}
		}
		return nil, fmt.Errorf("order creation failed: %w", err)
	}

	session := &OrderSession{
		OrderID:            data.ID,
		OrderToken:         data.Token,
		FromCurrency:       params.FromCurrency,
		ToCurrency:         params.ToCurrency,
		SendAmount:         amount,
		DestinationAddress: params.DestinationAddress,
		DepositAddress:     data.From.Address,
		DepositTag:         data.From.Tag,
		ReceiveAmount:      quote.ReceiveAmount,
		OrderType:          params.OrderType,
		CreatedAt:          c.now(),
		ExpiresAt:          time.Unix(data.Time.Expiration, 0),
	}

	if err := c.sessions.Put(session); err != nil {
		// The order exists upstream; losing the local slot is not fatal
		c.log.Error("failed to persist order session", "order_id", session.OrderID, "error", err)
	}

	c.log.Info("order created",
		"order_id", session.OrderID,
		"from", session.FromCurrency,
		"to", session.ToCurrency,
		"amount", session.SendAmount)

	return session, nil
}
