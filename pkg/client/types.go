package client

import "encoding/json"

// Currency describes one entry of the engine's currency catalog.
type Currency struct {
	Code     string `json:"code"`
	Coin     string `json:"coin"`
	Network  string `json:"network"`
	Name     string `json:"name"`
	Send     int    `json:"send"`
	Recv     int    `json:"recv"`
	Priority int    `json:"priority"`
	Color    string `json:"color"`
	Logo     string `json:"logo"`
}

// CanSend reports whether the currency is enabled on the sending side.
func (c Currency) CanSend() bool { return c.Send == 1 }

// CanReceive reports whether the currency is enabled on the receiving side.
func (c Currency) CanReceive() bool { return c.Recv == 1 }

// PriceRequest asks the engine to price an exchange.
type PriceRequest struct {
	FromCcy string `json:"fromCcy"`
	ToCcy   string `json:"toCcy"`
	Amount  string `json:"amount"`
	Type    string `json:"type"`
}

// PriceResponse is the engine's priced proposal for one request.
type PriceResponse struct {
	Rate string `json:"rate"`
	From struct {
		Min string `json:"min"`
		Max string `json:"max"`
	} `json:"from"`
	To struct {
		Amount string `json:"amount"`
	} `json:"to"`
	ExpiresAt int64 `json:"expiresAt"`
}

// CreateOrderRequest submits a new exchange order.
type CreateOrderRequest struct {
	FromCcy   string `json:"fromCcy"`
	ToCcy     string `json:"toCcy"`
	Amount    string `json:"amount"`
	ToAddress string `json:"toAddress"`
	Type      string `json:"type"`
	Rate      string `json:"rate"`
}

// OrderData is the payload returned for a created or queried order.
type OrderData struct {
	ID     string `json:"id"`
	Token  string `json:"token"`
	Status string `json:"status"`
	From   struct {
		Address    string `json:"address"`
		Tag        string `json:"tag,omitempty"`
		TagName    string `json:"tagName,omitempty"`
		AddressAlt string `json:"addressAlt,omitempty"`
	} `json:"from"`
	To struct {
		Address string `json:"address,omitempty"`
		Amount  string `json:"amount,omitempty"`
	} `json:"to"`
	Time struct {
		Expiration int64 `json:"expiration"`
		Creation   int64 `json:"reg,omitempty"`
	} `json:"time"`
}

// StatusRequest queries the current status of an order.
type StatusRequest struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// EmergencyChoice selects the manual recovery action for a stuck order.
type EmergencyChoice string

const (
	EmergencyExchange EmergencyChoice = "EXCHANGE"
	EmergencyRefund   EmergencyChoice = "REFUND"
)

// EmergencyRequest asks the engine to exchange at current rate or refund.
type EmergencyRequest struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Choice  EmergencyChoice `json:"choice"`
	Address string          `json:"address,omitempty"`
}

// envelope is the engine's uniform response wrapper.
type envelope struct {
	Code      int             `json:"code"`
	Msg       string          `json:"msg"`
	Data      json.RawMessage `json:"data"`
	DebugInfo json.RawMessage `json:"debugInfo,omitempty"`
}

// APIError is a business-level decline reported by the engine. The
// code, message and debug payload are kept exactly as received.
type APIError struct {
	Code      int
	Msg       string
	DebugInfo json.RawMessage
}

func (e *APIError) Error() string {
	return e.Msg
}
