package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	headerSessionID  = "X-Session-ID"
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 20
	defaultRateBurst = 40
)

// exchanges external session ids with the identity provider
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

// caps outbound requests per second; waiting honours the request context.
// perSecond <= 0 removes the cap.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}

		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// creates a client for the session-data endpoint at url
func NewClient(url string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// fetches user data for an external session id.
// network failures and timeouts map to ErrUpstreamUnavailable, non-200 answers to ErrInvalidSession.
func (c *Client) SessionData(ctx context.Context, externalSessionID string) (*SessionData, error) {
	if externalSessionID == "" {
		return nil, ErrInvalidSession
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build identity request: %w", err)
	}

	req.Header.Set(headerSessionID, externalSessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	defer resp.Body.Close() //nolint:errcheck // body fully consumed below

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // draining only
		return nil, fmt.Errorf("%w: upstream status %d", ErrInvalidSession, resp.StatusCode)
	}

	var data SessionData
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: undecodable response: %v", ErrUpstreamUnavailable, err)
	}

	if data.ID == "" || data.Email == "" {
		return nil, fmt.Errorf("%w: response missing id or email", ErrInvalidSession)
	}

	return &data, nil
}
