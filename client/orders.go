package client

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
)

// Order sides, types, and time-in-force values accepted by the
// exchange.
const (
	SideBuy  = "buy"
	SideSell = "sell"

	OrderTypeLimit  = "limit"
	OrderTypeMarket = "market"

	TimeInForceGTC = "good_till_cancelled"
	TimeInForceIOC = "immediate_or_cancel"
)

// OrderSpec is the caller's intent before signing. BaseAmount is in
// integer base units; Price is the human-readable decimal price.
type OrderSpec struct {
	Market      string
	Side        string
	OrderType   string
	BaseAmount  int64
	Price       float64
	TimeInForce string
}

// txPayload is the canonical wire form of an order transaction. Field
// order is fixed by this struct, so marshalling it yields the exact
// byte sequence that gets signed.
type txPayload struct {
	TxType           string `json:"tx_type"`
	Market           string `json:"market"`
	Side             string `json:"side"`
	OrderType        string `json:"order_type"`
	BaseAmount       int64  `json:"base_amount"`
	Price            int64  `json:"price"`
	ClientOrderIndex int64  `json:"client_order_index"`
	TimeInForce      string `json:"time_in_force"`
	Nonce            int64  `json:"nonce"`
	AccountIndex     int64  `json:"account_index"`
	APIKeyIndex      int64  `json:"api_key_index"`
	Signature        string `json:"signature,omitempty"`
}

// SignedOrder is an immutable signed transaction. Single-use: a
// rejected SignedOrder must never be resent unmodified.
type SignedOrder struct {
	Payload          txPayload
	Nonce            int64
	ClientOrderIndex int64
}

// SubmitResult is the exchange's acknowledgement of an accepted
// transaction.
type SubmitResult struct {
	TxHash           string
	ClientOrderIndex int64
	Nonce            int64
}

func validateOrderSpec(spec OrderSpec) error {
	if spec.Market == "" {
		return &ValidationError{Field: "market", Reason: "must not be empty"}
	}
	if spec.Side != SideBuy && spec.Side != SideSell {
		return &ValidationError{Field: "side", Reason: fmt.Sprintf("must be %q or %q", SideBuy, SideSell)}
	}
	if spec.BaseAmount <= 0 {
		return &ValidationError{Field: "base_amount", Reason: "must be positive"}
	}
	if spec.OrderType == OrderTypeLimit && spec.Price < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative for limit orders"}
	}
	return nil
}

// SignCreateOrder validates the spec, reserves a nonce, encodes the
// price as a fixed-point integer, and signs the canonical payload. The
// reserved nonce is consumed whether or not the order is ever sent.
func (c *Client) SignCreateOrder(spec OrderSpec) (*SignedOrder, error) {
	if err := validateOrderSpec(spec); err != nil {
		return nil, err
	}

	nonce, err := c.reserveNonce()
	if err != nil {
		return nil, err
	}

	tif := spec.TimeInForce
	if tif == "" {
		tif = TimeInForceGTC
	}

	payload := txPayload{
		TxType:           "create_order",
		Market:           spec.Market,
		Side:             spec.Side,
		OrderType:        spec.OrderType,
		BaseAmount:       spec.BaseAmount,
		Price:            PriceToFixed(spec.Price),
		ClientOrderIndex: c.nextClientOrderIndex(),
		TimeInForce:      tif,
		Nonce:            nonce,
		AccountIndex:     c.config.AccountIndex,
		APIKeyIndex:      c.config.APIKeyIndex,
	}

	if err := c.signPayload(&payload); err != nil {
		return nil, err
	}

	return &SignedOrder{
		Payload:          payload,
		Nonce:            nonce,
		ClientOrderIndex: payload.ClientOrderIndex,
	}, nil
}

// SignCancelOrder builds and signs a cancel transaction: no price or
// size, just the order reference under a fresh nonce.
func (c *Client) SignCancelOrder(clientOrderIndex int64) (*SignedOrder, error) {
	nonce, err := c.reserveNonce()
	if err != nil {
		return nil, err
	}

	payload := txPayload{
		TxType:           "cancel_order",
		ClientOrderIndex: clientOrderIndex,
		Nonce:            nonce,
		AccountIndex:     c.config.AccountIndex,
		APIKeyIndex:      c.config.APIKeyIndex,
	}

	if err := c.signPayload(&payload); err != nil {
		return nil, err
	}

	return &SignedOrder{
		Payload:          payload,
		Nonce:            nonce,
		ClientOrderIndex: clientOrderIndex,
	}, nil
}

// signPayload serializes the payload without its signature field and
// attaches the hex-encoded wallet signature.
func (c *Client) signPayload(payload *txPayload) error {
	unsigned := *payload
	unsigned.Signature = ""

	canonical, err := json.Marshal(unsigned)
	if err != nil {
		return fmt.Errorf("failed to serialize transaction: %w", err)
	}

	sig, err := c.identity.SignMessage(canonical)
	if err != nil {
		return err
	}

	payload.Signature = hex.EncodeToString(sig)
	return nil
}

// SendTransaction POSTs a signed transaction. An HTTP 409 means the
// exchange rejected the nonce: the sequencer is parked in Desynced and
// the caller must FetchNextNonce before the next reservation. Any other
// non-2xx surfaces as TransactionRejected without touching nonce state
// beyond the desync marking the caller is responsible for interpreting.
func (c *Client) SendTransaction(signed *SignedOrder) (*SubmitResult, error) {
	headers, err := c.AuthHeaders()
	if err != nil {
		return nil, err
	}

	respBody, err := c.doRequest(http.MethodPost, "/api/v1/transaction/send_tx", nil, headers, signed.Payload)
	if err != nil {
		if remote, ok := err.(*RemoteError); ok {
			c.markNonceDesynced()
			if remote.Status == http.StatusConflict {
				return nil, &NonceDesyncError{Nonce: signed.Nonce, Reason: remote.Body}
			}
			return nil, &TransactionRejected{Code: remote.Status, Message: remote.Body}
		}
		// Transport failure: the exchange may or may not have consumed
		// the nonce, so the sequencer is parked until a resync.
		c.markNonceDesynced()
		return nil, err
	}

	var resp txResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("malformed send_tx response: %w", err)
	}

	c.markNonceConfirmed()
	c.logf("📤 Transaction accepted: %s (nonce %d)", resp.TxHash, signed.Nonce)

	return &SubmitResult{
		TxHash:           resp.TxHash,
		ClientOrderIndex: signed.ClientOrderIndex,
		Nonce:            signed.Nonce,
	}, nil
}

// CreateOrder signs and submits an order transaction in one call.
func (c *Client) CreateOrder(spec OrderSpec) (*SubmitResult, error) {
	signed, err := c.SignCreateOrder(spec)
	if err != nil {
		return nil, err
	}
	return c.SendTransaction(signed)
}

// CancelOrder signs and submits a cancel transaction in one call.
func (c *Client) CancelOrder(clientOrderIndex int64) (*SubmitResult, error) {
	signed, err := c.SignCancelOrder(clientOrderIndex)
	if err != nil {
		return nil, err
	}
	return c.SendTransaction(signed)
}
