package client

import (
	"testing"
	"time"

	"lighter-trading-bot/signer"
)

// Deterministic test key; never used outside tests.
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	identity, err := signer.FromPrivateKeyHex(testKeyHex)
	if err != nil {
		t.Fatalf("failed to load test identity: %v", err)
	}

	config := DefaultConfig()
	config.BaseURL = baseURL
	config.Timeout = 5 * time.Second
	config.AccountIndex = 3
	config.APIKeyIndex = 1

	c, err := NewClient(config, identity)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestNewClientRequiresIdentity(t *testing.T) {
	if _, err := NewClient(DefaultConfig(), nil); err == nil {
		t.Fatal("expected error when identity is nil")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	identity, err := signer.FromPrivateKeyHex(testKeyHex)
	if err != nil {
		t.Fatalf("failed to load test identity: %v", err)
	}
	config := DefaultConfig()
	config.BaseURL = ""
	if _, err := NewClient(config, identity); err == nil {
		t.Fatal("expected error when base URL is empty")
	}
}

func TestClientOrderIndexMonotonic(t *testing.T) {
	c := newTestClient(t, "http://localhost:0")
	first := c.nextClientOrderIndex()
	second := c.nextClientOrderIndex()
	if second != first+1 {
		t.Fatalf("client order index not monotonic: %d then %d", first, second)
	}
}
