package order

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipswap/pkg/client"
)

type fakeOrderAPI struct {
	resp   *client.OrderData
	err    error
	gotReq *client.CreateOrderRequest
}

func (f *fakeOrderAPI) CreateOrder(ctx context.Context, req client.CreateOrderRequest) (*client.OrderData, error) {
	f.gotReq = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func activeQuote(now time.Time) *Quote {
	return &Quote{
		FromCurrency:  "USDT",
		ToCurrency:    "BTC",
		SendAmount:    decimal.RequireFromString("11"),
		ReceiveAmount: decimal.RequireFromString("0.000275"),
		Rate:          decimal.RequireFromString("0.000025"),
		MinAmount:     decimal.RequireFromString("10"),
		MaxAmount:     decimal.RequireFromString("5000"),
		CreatedAt:     now,
		ExpiresAt:     now.Add(QuoteTTL),
	}
}

func newTestCreator(t *testing.T, api *fakeOrderAPI, quote *Quote) (*Creator, *SessionStore) {
	t.Helper()
	calc := NewCalculator(&fakePriceAPI{}, nil)
	calc.quote = quote
	sessions := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	return NewCreator(api, calc, sessions, testLogger()), sessions
}

func validParams() CreateParams {
	return CreateParams{
		FromCurrency:       "USDT",
		ToCurrency:         "BTC",
		Amount:             "11",
		DestinationAddress: "addr1",
		OrderType:          TypeFixed,
	}
}

func TestCreatePreconditionOrder(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		mutate func(*CreateParams)
		quote  *Quote
		field  string
	}{
		{"missing currency", func(p *CreateParams) { p.FromCurrency = "" }, activeQuote(now), "currency"},
		{"zero amount", func(p *CreateParams) { p.Amount = "0" }, activeQuote(now), "amount"},
		{"missing address", func(p *CreateParams) { p.DestinationAddress = "" }, activeQuote(now), "destination address"},
		{"no quote", func(p *CreateParams) {}, nil, "amount"},
		{"below minimum", func(p *CreateParams) { p.Amount = "1" }, activeQuote(now), "amount"},
		{"above maximum", func(p *CreateParams) { p.Amount = "999999" }, activeQuote(now), "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeOrderAPI{}
			creator, _ := newTestCreator(t, api, tt.quote)

			params := validParams()
			tt.mutate(&params)

			_, err := creator.Create(context.Background(), params)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
			assert.Nil(t, api.gotReq, "no order may be submitted on a failed precondition")
		})
	}
}

func TestCreateRejectsExpiredQuote(t *testing.T) {
	now := time.Now()
	api := &fakeOrderAPI{}
	creator, _ := newTestCreator(t, api, activeQuote(now.Add(-2*QuoteTTL)))

	_, err := creator.Create(context.Background(), validParams())

	require.ErrorIs(t, err, ErrQuoteExpired)
	assert.Nil(t, api.gotReq, "a stale rate must never be submitted")
}

func TestCreatePropagatesBusinessDeclineVerbatim(t *testing.T) {
	debug := json.RawMessage(`{"reserve":"depleted"}`)
	api := &fakeOrderAPI{err: &client.APIError{Code: 301, Msg: "OUT_OF_RESERVES", DebugInfo: debug}}
	creator, _ := newTestCreator(t, api, activeQuote(time.Now()))

	_, err := creator.Create(context.Background(), validParams())

	var orderErr *OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, 301, orderErr.Code)
	assert.Equal(t, "OUT_OF_RESERVES", orderErr.Msg)
	assert.Equal(t, debug, orderErr.DebugInfo)
}

func TestCreateWrapsTransportFailure(t *testing.T) {
	api := &fakeOrderAPI{err: errors.New("connection refused")}
	creator, _ := newTestCreator(t, api, activeQuote(time.Now()))

	_, err := creator.Create(context.Background(), validParams())

	require.Error(t, err)
	var orderErr *OrderError
	assert.False(t, errors.As(err, &orderErr), "a transport failure is not a business decline")
}

func TestCreatePersistsSessionOverwritingPrior(t *testing.T) {
	expiration := time.Now().Add(30 * time.Minute).Unix()

	makeResp := func(id string) *client.OrderData {
		data := &client.OrderData{ID: id, Token: "tok-" + id, Status: "NEW"}
		data.From.Address = "dep-" + id
		data.From.Tag = "1234"
		data.Time.Expiration = expiration
		return data
	}

	api := &fakeOrderAPI{resp: makeResp("a")}
	creator, sessions := newTestCreator(t, api, activeQuote(time.Now()))

	first, err := creator.Create(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, "a", first.OrderID)
	assert.Equal(t, "dep-a", first.DepositAddress)
	assert.Equal(t, "1234", first.DepositTag)
	assert.Equal(t, "0.000025", api.gotReq.Rate)

	api.resp = makeResp("b")
	second, err := creator.Create(context.Background(), validParams())
	require.NoError(t, err)

	stored, err := sessions.Get()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, second.OrderID, stored.OrderID, "new order must overwrite the prior session")
	assert.Equal(t, "tok-b", stored.OrderToken)
}
