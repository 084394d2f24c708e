package client

import "net/url"

// nonceStatus tracks where the local counter stands relative to the
// exchange. Reservations are only legal from Confirmed or Reserved;
// after any rejection the sequencer parks in Desynced until the caller
// refetches the authoritative value.
type nonceStatus int

const (
	nonceFresh nonceStatus = iota
	nonceConfirmed
	nonceReserved
	nonceDesynced
)

func (s nonceStatus) String() string {
	switch s {
	case nonceFresh:
		return "fresh"
	case nonceConfirmed:
		return "confirmed"
	case nonceReserved:
		return "reserved"
	case nonceDesynced:
		return "desynced"
	}
	return "unknown"
}

// nonceSequencer is a plain counter with an explicit state machine.
// No locking: the session submits one transaction at a time.
type nonceSequencer struct {
	status nonceStatus
	next   int64
}

type nextNonceResponse struct {
	Nonce int64 `json:"nonce"`
}

// FetchNextNonce reads the exchange's next expected nonce for this
// (account, API-key) pair and resynchronizes the local counter. Must be
// called once after process start and again after any rejection.
func (c *Client) FetchNextNonce() (int64, error) {
	query := url.Values{}
	query.Set("account_index", formatInt(c.config.AccountIndex))
	query.Set("api_key_index", formatInt(c.config.APIKeyIndex))

	var resp nextNonceResponse
	if err := c.getJSONAuthed("/api/v1/transaction/next_nonce", query, &resp); err != nil {
		return 0, err
	}

	c.nonce.next = resp.Nonce
	c.nonce.status = nonceConfirmed
	c.logf("🔢 Nonce resynced to %d", resp.Nonce)
	return resp.Nonce, nil
}

// reserveNonce returns the cached counter and optimistically increments
// it. A reservation consumed by a rejected submission is NOT rolled
// back: the sequencer moves to Desynced on rejection and the caller
// must call FetchNextNonce before the next reservation.
func (c *Client) reserveNonce() (int64, error) {
	switch c.nonce.status {
	case nonceConfirmed, nonceReserved:
		n := c.nonce.next
		c.nonce.next++
		c.nonce.status = nonceReserved
		return n, nil
	case nonceFresh:
		return 0, &NonceDesyncError{Reason: "nonce never fetched; call FetchNextNonce first"}
	default:
		return 0, &NonceDesyncError{Nonce: c.nonce.next, Reason: "sequencer desynced; call FetchNextNonce before reserving"}
	}
}

// markNonceConfirmed records that the exchange accepted the reserved
// nonce, so the incremented counter is authoritative again.
func (c *Client) markNonceConfirmed() {
	c.nonce.status = nonceConfirmed
}

// markNonceDesynced parks the sequencer after a rejection.
func (c *Client) markNonceDesynced() {
	c.nonce.status = nonceDesynced
}
