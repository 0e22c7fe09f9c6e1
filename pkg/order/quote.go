package order

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"flipswap/pkg/client"
)

// PriceAPI is the slice of the engine client the calculator needs.
type PriceAPI interface {
	CalculatePrice(ctx context.Context, req client.PriceRequest) (*client.PriceResponse, error)
}

// Calculator fetches priced proposals and drives the quote countdown.
// A returned quote stays valid for QuoteTTL; the countdown ticks once
// per second and clears its display exactly when the quote lapses.
type Calculator struct {
	api    PriceAPI
	now    func() time.Time
	onTick func(display string) // receives "" when the countdown clears

	mu        sync.Mutex
	busy      bool
	seq       uint64
	quote     *Quote
	countdown *countdown
}

type countdown struct {
	done chan struct{}
	once sync.Once
}

func (cd *countdown) stop() {
	cd.once.Do(func() { close(cd.done) })
}

// NewCalculator creates a quote calculator. onTick may be nil when no
// countdown display is needed.
func NewCalculator(api PriceAPI, onTick func(string)) *Calculator {
	return &Calculator{
		api:    api,
		now:    time.Now,
		onTick: onTick,
	}
}

// Calculate requests a fresh quote. Missing currencies or a
// non-positive amount return (nil, nil) without an upstream call. A
// response that arrives after a newer Calculate superseded it is
// discarded.
func (c *Calculator) Calculate(ctx context.Context, from, to, amount string, orderType OrderType) (*Quote, error) {
	if from == "" || to == "" {
		return nil, nil
	}
	sendAmount, err := decimal.NewFromString(amount)
	if err != nil || !sendAmount.IsPositive() {
		return nil, nil
	}

	c.mu.Lock()
	c.busy = true
	c.seq++
	mySeq := c.seq
	c.mu.Unlock()

	resp, apiErr := c.api.CalculatePrice(ctx, client.PriceRequest{
		FromCcy: from,
		ToCcy:   to,
		Amount:  amount,
		Type:    string(orderType),
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if mySeq != c.seq {
		// Superseded by a newer request while in flight
		return nil, nil
	}

	if apiErr != nil {
		return nil, &QuoteError{Err: apiErr}
	}

	quote, err := c.buildQuote(from, to, sendAmount, resp)
	if err != nil {
		return nil, &QuoteError{Err: err}
	}

	c.quote = quote
	c.restartCountdownLocked(quote)
	return quote, nil
}

func (c *Calculator) buildQuote(from, to string, sendAmount decimal.Decimal, resp *client.PriceResponse) (*Quote, error) {
	rate, err := decimal.NewFromString(resp.Rate)
	if err != nil {
		return nil, err
	}
	minAmount, err := decimal.NewFromString(resp.From.Min)
	if err != nil {
		return nil, err
	}
	maxAmount, err := decimal.NewFromString(resp.From.Max)
	if err != nil {
		return nil, err
	}
	receiveAmount, err := decimal.NewFromString(resp.To.Amount)
	if err != nil {
		return nil, err
	}

	now := c.now()
	return &Quote{
		FromCurrency:  from,
		ToCurrency:    to,
		SendAmount:    sendAmount,
		ReceiveAmount: receiveAmount,
		Rate:          rate,
		MinAmount:     minAmount,
		MaxAmount:     maxAmount,
		CreatedAt:     now,
		ExpiresAt:     now.Add(QuoteTTL),
	}, nil
}

// Quote returns the most recent quote, or nil.
func (c *Calculator) Quote() *Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quote
}

// Busy reports whether a calculation is in flight.
func (c *Calculator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// StopCountdown cancels the running countdown, if any.
func (c *Calculator) StopCountdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown != nil {
		c.countdown.stop()
		c.countdown = nil
	}
}

// restartCountdownLocked cancels any prior countdown and starts a new
// one for the given quote. Caller holds c.mu.
func (c *Calculator) restartCountdownLocked(quote *Quote) {
	if c.onTick == nil {
		return
	}
	if c.countdown != nil {
		c.countdown.stop()
	}
	cd := &countdown{done: make(chan struct{})}
	c.countdown = cd
	go c.runCountdown(cd, quote)
}

func (c *Calculator) runCountdown(cd *countdown, quote *Quote) {
	c.onTick(FormatRemaining(quote.Remaining(c.now())))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-cd.done:
			return
		case <-ticker.C:
			remaining := quote.Remaining(c.now())
			if remaining == 0 {
				c.onTick("")
				return
			}
			c.onTick(FormatRemaining(remaining))
		}
	}
}
