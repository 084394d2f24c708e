// Package client implements the authenticated session against the Lighter
// perpetuals exchange: public market-data reads, wallet-signed transaction
// submission, and the nonce discipline both require.
//
// One Client is constructed at process start from configuration and passed
// by reference to every caller. The nonce counter and auth token it owns are
// plain fields with no internal locking: the design assumes one in-flight
// transaction at a time, so callers must serialize cycles externally.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"lighter-trading-bot/signer"
)

// Config holds the session parameters for one exchange connection.
type Config struct {
	BaseURL       string        `json:"base_url"`
	Timeout       time.Duration `json:"timeout"`
	AccountIndex  int64         `json:"account_index"`
	APIKeyIndex   int64         `json:"api_key_index"`
	AuthTokenTTL  time.Duration `json:"auth_token_ttl"`
	EnableLogging bool          `json:"enable_logging"`
}

// DefaultConfig returns the mainnet connection defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "https://mainnet.zklighter.elliot.ai",
		Timeout:      30 * time.Second,
		AuthTokenTTL: 10 * time.Minute,
	}
}

// Client is the single session object. It carries both capability sets:
// the public market-data operations and the authenticated order operations.
type Client struct {
	config   *Config
	identity *signer.Identity

	httpClient *http.Client

	// Mutable session state, owned exclusively by the single-threaded
	// session. See the package comment for the concurrency contract.
	token          *authToken
	nonce          nonceSequencer
	clientOrderSeq int64
}

// NewClient builds a session from configuration and a signing identity.
func NewClient(config *Config, identity *signer.Identity) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if identity == nil {
		return nil, &signer.SigningError{Reason: "client requires a signing identity"}
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	return &Client{
		config:   config,
		identity: identity,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		clientOrderSeq: time.Now().UnixMilli(),
	}, nil
}

// Address returns the wallet address this session signs with.
func (c *Client) Address() string {
	return c.identity.Address().Hex()
}

// AccountIndex returns the exchange account this session operates on.
func (c *Client) AccountIndex() int64 {
	return c.config.AccountIndex
}

// nextClientOrderIndex issues a process-unique client order reference.
func (c *Client) nextClientOrderIndex() int64 {
	idx := c.clientOrderSeq
	c.clientOrderSeq++
	return idx
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.config.EnableLogging {
		log.Printf(format, args...)
	}
}

// doRequest issues one blocking HTTP call and maps failures onto the
// error taxonomy: transport problems become NetworkError, non-2xx
// responses become RemoteError. No retries happen here.
func (c *Client) doRequest(method, path string, query url.Values, headers map[string]string, body interface{}) ([]byte, error) {
	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// getJSON is the public-capability read path: one GET, parse-or-fail
// into a typed schema struct so a malformed response surfaces here
// rather than propagating absent fields downstream.
func (c *Client) getJSON(path string, query url.Values, out interface{}) error {
	respBody, err := c.doRequest(http.MethodGet, path, query, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("malformed response from %s: %w", path, err)
	}
	return nil
}

// getJSONAuthed is the same read path with the session's auth headers.
func (c *Client) getJSONAuthed(path string, query url.Values, out interface{}) error {
	headers, err := c.AuthHeaders()
	if err != nil {
		return err
	}
	respBody, err := c.doRequest(http.MethodGet, path, query, headers, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("malformed response from %s: %w", path, err)
	}
	return nil
}
