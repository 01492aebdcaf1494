// Package auth attaches OAuth2 client-credentials tokens to outgoing requests.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCred caches a token and refreshes it when it expires. It is safe for
// concurrent use.
type ClientCred struct {
	conf  clientcredentials.Config
	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{
		conf: conf.toOauth2Config(),
	}
}

// SetAuthHeader sets the Authorization header of r.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(r.Context()); err != nil {
		return err
	}
	c.token.SetAuthHeader(r)
	return nil
}

func (c *ClientCred) ensure(ctx context.Context) error {
	if c.token != nil && c.token.Valid() {
		return nil
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return nil
}

// Transport wraps base so that every request carries a bearer token.
// A nil base uses http.DefaultTransport.
func (c *ClientCred) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{cred: c, base: base}
}

type transport struct {
	cred *ClientCred
	base http.RoundTripper
}

func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	req := r.Clone(r.Context())
	if err := t.cred.SetAuthHeader(req); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
