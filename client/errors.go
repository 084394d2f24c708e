package client

import "fmt"

// ValidationError indicates a malformed order spec. The caller must fix
// the input; resubmitting the same spec will fail the same way.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %s %s", e.Field, e.Reason)
}

// NetworkError wraps a transport-level failure (DNS, dial, timeout).
// Retryable at the caller's discretion.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError is a non-2xx response from the exchange. The caller
// decides the retry policy.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Status, e.Body)
}

// TransactionRejected is a non-2xx response to a signed transaction
// submission. A rejected SignedOrder is single-use: it must never be
// resent unmodified.
type TransactionRejected struct {
	Code    int
	Message string
}

func (e *TransactionRejected) Error() string {
	return fmt.Sprintf("transaction rejected (%d): %s", e.Code, e.Message)
}

// NonceDesyncError means the local nonce counter no longer matches the
// exchange's expectation. Recoverable: call FetchNextNonce before the
// next reservation.
type NonceDesyncError struct {
	Nonce  int64
	Reason string
}

func (e *NonceDesyncError) Error() string {
	return fmt.Sprintf("nonce desync at %d: %s", e.Nonce, e.Reason)
}
