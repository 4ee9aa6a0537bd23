// Package resolve fetches candidate reference URLs. Each URL gets exactly
// one GET attempt with transparent redirect following; retry policy, if
// any, belongs to the caller.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Bodies larger than this are truncated; publisher landing pages fit well
// under it and the matcher only needs the head of the document anyway.
const maxBodyBytes = 4 << 20

// defaultUserAgents is the rotation pool. A realistic browser string is
// picked pseudo-randomly per request to reduce trivial bot-blocking.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Outcome is the result of fetching one URL. A zero StatusCode with a
// non-empty Reason is a transport-level failure (connect error, timeout).
type Outcome struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	Reason     string
}

// Accessible reports whether the fetch ended on a 2xx final status.
func (o Outcome) Accessible() bool {
	return o.Reason == "" && o.StatusCode >= 200 && o.StatusCode < 300
}

// Client issues single GET attempts with redirect following, a per-request
// timeout, and a rotating user-agent.
type Client struct {
	HTTPClient *http.Client
	// Timeout bounds each request. Zero means no client-imposed bound
	// beyond the caller's context.
	Timeout time.Duration
	// RedirectMaxHops caps redirect following to avoid loops. Zero means
	// default (10; DOI chains through publishers can be long).
	RedirectMaxHops int
	// UserAgents overrides the default rotation pool when non-empty.
	UserAgents []string
}

// Resolve performs one GET against rawURL. Failures are captured in the
// Outcome, never returned as an error: the caller classifies the URL as
// inaccessible and keeps going.
func (c *Client) Resolve(ctx context.Context, rawURL string) Outcome {
	out := Outcome{URL: rawURL, FinalURL: rawURL}

	u, err := url.Parse(rawURL)
	if err != nil || !isHTTPScheme(u) {
		out.Reason = fmt.Sprintf("unsupported URL: %q", rawURL)
		return out
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		out.Reason = err.Error()
		return out
	}
	req.Header.Set("User-Agent", c.pickUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			out.Reason = "timeout"
		} else {
			out.Reason = err.Error()
		}
		return out
	}
	defer resp.Body.Close()

	out.StatusCode = resp.StatusCode
	if resp.Request != nil && resp.Request.URL != nil {
		out.FinalURL = resp.Request.URL.String()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return out
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		out.Reason = fmt.Sprintf("read body: %v", err)
		return out
	}
	out.Body = body
	return out
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach the redirect policy without mutating the caller's client.
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	hops := c.RedirectMaxHops
	if hops <= 0 {
		hops = 10
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= hops {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func (c *Client) pickUserAgent() string {
	pool := c.UserAgents
	if len(pool) == 0 {
		pool = defaultUserAgents
	}
	return pool[rand.IntN(len(pool))]
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
