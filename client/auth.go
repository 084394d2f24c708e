package client

import (
	"encoding/hex"
	"fmt"
	"time"
)

// authToken is the time-bound credential attached to authenticated
// requests. Tokens are regenerated wholesale on expiry, never patched.
type authToken struct {
	message   string
	signature string
	issuedAt  time.Time
	expiry    time.Time
}

func (t *authToken) expired(now time.Time) bool {
	return !now.Before(t.expiry)
}

// createAuthToken signs a fresh credential valid for ttl. The signed
// message binds the timestamp window to this session's account and
// API-key indices so a captured token cannot be replayed elsewhere.
func (c *Client) createAuthToken(ttl time.Duration) (*authToken, error) {
	issuedAt := time.Now()
	expiry := issuedAt.Add(ttl)

	message := fmt.Sprintf("%d:%d:%d:%d",
		issuedAt.Unix(), expiry.Unix(), c.config.AccountIndex, c.config.APIKeyIndex)

	sig, err := c.identity.SignMessage([]byte(message))
	if err != nil {
		return nil, err
	}

	return &authToken{
		message:   message,
		signature: hex.EncodeToString(sig),
		issuedAt:  issuedAt,
		expiry:    expiry,
	}, nil
}

// AuthHeaders returns the authenticated request headers, reusing the
// cached token while it is valid. The cached token is replaced in a
// single assignment, never partially updated.
func (c *Client) AuthHeaders() (map[string]string, error) {
	if c.token == nil || c.token.expired(time.Now()) {
		token, err := c.createAuthToken(c.config.AuthTokenTTL)
		if err != nil {
			return nil, err
		}
		c.token = token
	}

	return map[string]string{
		"X-Auth-Token":    c.token.signature,
		"X-Auth-Message":  c.token.message,
		"X-Account-Index": fmt.Sprintf("%d", c.config.AccountIndex),
		"X-API-Key-Index": fmt.Sprintf("%d", c.config.APIKeyIndex),
	}, nil
}
