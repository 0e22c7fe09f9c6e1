package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePriceDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var req PriceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "USDT", req.FromCcy)
		assert.Equal(t, "11", req.Amount)

		w.Write([]byte(`{"code":0,"msg":"OK","data":{"rate":"0.000025","from":{"min":"10","max":"5000"},"to":{"amount":"0.000275"}}}`))
	}))
	defer server.Close()

	c := New(server.URL, "test-key")
	price, err := c.CalculatePrice(context.Background(), PriceRequest{
		FromCcy: "USDT", ToCcy: "BTC", Amount: "11", Type: "fixed",
	})

	require.NoError(t, err)
	assert.Equal(t, "0.000025", price.Rate)
	assert.Equal(t, "10", price.From.Min)
	assert.Equal(t, "5000", price.From.Max)
	assert.Equal(t, "0.000275", price.To.Amount)
}

func TestCreateOrderReturnsAPIErrorVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":301,"msg":"OUT_OF_RESERVES","data":null,"debugInfo":{"reserve":"depleted"}}`))
	}))
	defer server.Close()

	c := New(server.URL, "test-key")
	_, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		FromCcy: "USDT", ToCcy: "BTC", Amount: "11", ToAddress: "addr1", Type: "fixed",
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 301, apiErr.Code)
	assert.Equal(t, "OUT_OF_RESERVES", apiErr.Msg)
	assert.JSONEq(t, `{"reserve":"depleted"}`, string(apiErr.DebugInfo))
}

func TestDoExtractsMessageFromHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":401,"msg":"invalid api key"}`))
	}))
	defer server.Close()

	c := New(server.URL, "bad-key")
	_, err := c.FetchCurrencies(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
	assert.Contains(t, err.Error(), "401")
}

func TestDoReportsBareStatusOnUnparsableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream gone"))
	}))
	defer server.Close()

	c := New(server.URL, "test-key")
	_, err := c.FetchCurrencies(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCheckOrderStatusSendsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order/status", r.URL.Path)

		var req StatusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ord-1", req.ID)
		assert.Equal(t, "tok-1", req.Token)

		w.Write([]byte(`{"code":0,"msg":"OK","data":{"id":"ord-1","status":"PENDING"}}`))
	}))
	defer server.Close()

	c := New(server.URL, "test-key")
	data, err := c.CheckOrderStatus(context.Background(), "ord-1", "tok-1")

	require.NoError(t, err)
	assert.Equal(t, "ord-1", data.ID)
	assert.Equal(t, "PENDING", data.Status)
}

func TestFetchCurrencies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"code":0,"msg":"OK","data":[
			{"code":"BTC","coin":"BTC","network":"BTC","name":"Bitcoin","send":1,"recv":1},
			{"code":"USDTTRC","coin":"USDT","network":"TRX","name":"Tether (TRC20)","send":1,"recv":0}
		]}`))
	}))
	defer server.Close()

	c := New(server.URL, "test-key")
	currencies, err := c.FetchCurrencies(context.Background())

	require.NoError(t, err)
	require.Len(t, currencies, 2)
	assert.True(t, currencies[0].CanSend())
	assert.True(t, currencies[0].CanReceive())
	assert.False(t, currencies[1].CanReceive())
}

func TestSetEmergency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order/emergency", r.URL.Path)

		var req EmergencyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, EmergencyRefund, req.Choice)
		assert.Equal(t, "refund-addr", req.Address)

		w.Write([]byte(`{"code":0,"msg":"OK","data":true}`))
	}))
	defer server.Close()

	c := New(server.URL, "test-key")
	err := c.SetEmergency(context.Background(), EmergencyRequest{
		ID: "ord-1", Token: "tok-1", Choice: EmergencyRefund, Address: "refund-addr",
	})

	require.NoError(t, err)
}
