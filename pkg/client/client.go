package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// Client talks to the settlement engine's REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New creates a settlement engine client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// FetchCurrencies retrieves the engine's currency catalog.
func (c *Client) FetchCurrencies(ctx context.Context) ([]Currency, error) {
	var currencies []Currency
	if err := c.do(ctx, http.MethodGet, "/currencies", nil, &currencies); err != nil {
		return nil, fmt.Errorf("failed to fetch currencies: %w", err)
	}
	return currencies, nil
}

// CalculatePrice requests a priced proposal for the given pair and amount.
func (c *Client) CalculatePrice(ctx context.Context, req PriceRequest) (*PriceResponse, error) {
	var price PriceResponse
	if err := c.do(ctx, http.MethodPost, "/price", req, &price); err != nil {
		return nil, fmt.Errorf("failed to calculate price: %w", err)
	}
	return &price, nil
}

// CreateOrder submits a new exchange order. A business decline comes
// back as an *APIError with the engine's code and message untouched.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderData, error) {
	var data OrderData
	if err := c.do(ctx, http.MethodPost, "/order", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CheckOrderStatus fetches the current settlement status of an order.
func (c *Client) CheckOrderStatus(ctx context.Context, orderID, token string) (*OrderData, error) {
	var data OrderData
	req := StatusRequest{ID: orderID, Token: token}
	if err := c.do(ctx, http.MethodPost, "/order/status", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetEmergency performs a manual exchange or refund on a stuck order.
func (c *Client) SetEmergency(ctx context.Context, req EmergencyRequest) error {
	return c.do(ctx, http.MethodPost, "/order/emergency", req, nil)
}

// do executes one API call and decodes the envelope. A non-zero
// envelope code is returned as *APIError; transport and decode
// problems are plain wrapped errors.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Try to extract the actual error message from the response
		var env envelope
		if jsonErr := json.Unmarshal(bodyBytes, &env); jsonErr == nil && env.Msg != "" {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, env.Msg)
		}
		return fmt.Errorf("API returned status code %d", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if env.Code != 0 {
		return &APIError{Code: env.Code, Msg: env.Msg, DebugInfo: env.DebugInfo}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}
